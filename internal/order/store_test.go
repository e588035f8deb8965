package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront-be/internal/cart"
	"storefront-be/internal/product"

	"github.com/shopspring/decimal"
)

// memDB is an in-memory Repository. Transactions are serialised and
// roll back to a snapshot on error, which mirrors the row locks and
// atomicity the SQL implementation relies on.
type memDB struct {
	mu sync.Mutex

	products map[uint]product.Product
	carts    map[uint]cart.CartItem
	orders   map[uint]*Order

	nextCartID  uint
	nextOrderID uint
	nextItemID  uint

	txCount int

	decrementHook    func(productID uint) error
	insertOrderHook  func(params NewOrderParams) error
	beforeStatusSave func(o *Order)
}

func newMemDB() *memDB {
	return &memDB{
		products: map[uint]product.Product{},
		carts:    map[uint]cart.CartItem{},
		orders:   map[uint]*Order{},
	}
}

func (m *memDB) addProduct(id uint, name, price string, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id] = product.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock}
}

func (m *memDB) setPrice(id uint, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.products[id]
	p.Price = decimal.RequireFromString(price)
	m.products[id] = p
}

func (m *memDB) stock(id uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

func (m *memDB) addToCart(userID, productID uint, qty int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCartID++
	m.carts[m.nextCartID] = cart.CartItem{ID: m.nextCartID, UserID: userID, ProductID: productID, Quantity: qty}
}

func (m *memDB) cartSize(userID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.carts {
		if c.UserID == userID {
			n++
		}
	}
	return n
}

func (m *memDB) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

type memSnapshot struct {
	products map[uint]product.Product
	carts    map[uint]cart.CartItem
	orders   map[uint]*Order
	ids      [3]uint
}

func (m *memDB) snapshot() memSnapshot {
	s := memSnapshot{
		products: make(map[uint]product.Product, len(m.products)),
		carts:    make(map[uint]cart.CartItem, len(m.carts)),
		orders:   make(map[uint]*Order, len(m.orders)),
		ids:      [3]uint{m.nextCartID, m.nextOrderID, m.nextItemID},
	}
	for k, v := range m.products {
		s.products[k] = v
	}
	for k, v := range m.carts {
		s.carts[k] = v
	}
	for k, v := range m.orders {
		s.orders[k] = cloneOrder(v)
	}
	return s
}

func (m *memDB) restore(s memSnapshot) {
	m.products, m.carts, m.orders = s.products, s.carts, s.orders
	m.nextCartID, m.nextOrderID, m.nextItemID = s.ids[0], s.ids[1], s.ids[2]
}

func cloneOrder(o *Order) *Order {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	return &c
}

func (m *memDB) RunInTx(ctx context.Context, fn func(tx CheckoutTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.txCount++
	snap := m.snapshot()
	if err := fn(&memTx{m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memDB) GetOrder(_ context.Context, id uint) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (m *memDB) ListOrders(_ context.Context, p ListOrdersParams) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]Order, 0)
	for _, o := range m.orders {
		if (p.UserID == 0 || o.UserID == p.UserID) && (p.Status == "" || o.Status == p.Status) {
			all = append(all, *cloneOrder(o))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	start := (p.Page - 1) * p.Limit
	if start >= len(all) {
		return []Order{}, nil
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (m *memDB) UpdateOrderStatus(_ context.Context, id uint, from, to Status) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return time.Time{}, ErrInvalidTransition
	}
	if m.beforeStatusSave != nil {
		m.beforeStatusSave(o)
	}
	if o.Status != from {
		return time.Time{}, ErrInvalidTransition
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return o.UpdatedAt, nil
}

type memTx struct {
	db *memDB
}

func (t *memTx) ListCartItemsForUpdate(_ context.Context, userID uint) ([]cart.CartItem, error) {
	items := make([]cart.CartItem, 0)
	for _, c := range t.db.carts {
		if c.UserID == userID {
			items = append(items, c)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}

func (t *memTx) GetProductForUpdate(_ context.Context, id uint) (*product.Product, error) {
	p, ok := t.db.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &p, nil
}

func (t *memTx) DecrementStock(_ context.Context, id uint, qty int) error {
	if t.db.decrementHook != nil {
		if err := t.db.decrementHook(id); err != nil {
			return err
		}
	}
	p := t.db.products[id]
	if p.Stock < qty {
		return product.ErrInsufficientStock
	}
	p.Stock -= qty
	t.db.products[id] = p
	return nil
}

func (t *memTx) ClearCart(_ context.Context, userID uint) error {
	for id, c := range t.db.carts {
		if c.UserID == userID {
			delete(t.db.carts, id)
		}
	}
	return nil
}

func (t *memTx) OrderNumberExists(_ context.Context, number string) (bool, error) {
	for _, o := range t.db.orders {
		if o.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertOrder(ctx context.Context, params NewOrderParams) (*Order, error) {
	if t.db.insertOrderHook != nil {
		if err := t.db.insertOrderHook(params); err != nil {
			return nil, err
		}
	}
	if exists, _ := t.OrderNumberExists(ctx, params.OrderNumber); exists {
		return nil, ErrOrderNumberConflict
	}

	t.db.nextOrderID++
	now := time.Now()
	o := &Order{
		ID:          t.db.nextOrderID,
		OrderNumber: params.OrderNumber,
		UserID:      params.UserID,
		Status:      StatusPending,
		Shipping:    params.Shipping,
		TotalAmount: params.TotalAmount,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       []OrderItem{},
	}
	t.db.orders[o.ID] = o
	return cloneOrder(o), nil
}

func (t *memTx) InsertOrderItem(_ context.Context, orderID uint, params NewOrderItemParams) (*OrderItem, error) {
	t.db.nextItemID++
	productID := params.ProductID
	item := OrderItem{
		ID:          t.db.nextItemID,
		OrderID:     orderID,
		ProductID:   &productID,
		ProductName: params.ProductName,
		Price:       params.Price,
		Quantity:    params.Quantity,
	}
	o := t.db.orders[orderID]
	o.Items = append(o.Items, item)
	return &item, nil
}
