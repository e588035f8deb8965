package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const OrderNumberPrefix = "ORD"

// GenerateOrderNumber returns ORD-YYYYMMDD-HHMMSS-mmm-NNNN in UTC.
// The random suffix keeps collisions rare; callers still rely on the
// UNIQUE constraint for correctness.
func GenerateOrderNumber() string {
	return orderNumberAt(time.Now().UTC())
}

func orderNumberAt(now time.Time) string {
	millis := now.Nanosecond() / int(time.Millisecond)

	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf("%s-%s-%03d-%04d",
		OrderNumberPrefix,
		now.Format("20060102-150405"),
		millis,
		n.Int64(),
	)
}
