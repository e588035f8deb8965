package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	Brand       string
	ImageURL    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ListOptions struct {
	Category string
	Search   string
	InStock  bool
	Limit    int
	Page     int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)
