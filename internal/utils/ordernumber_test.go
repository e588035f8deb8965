package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumber(t *testing.T) {
	t.Run("Format", func(t *testing.T) {
		num := GenerateOrderNumber()
		// ORD-YYYYMMDD-HHMMSS-mmm-RRRR

		assert.True(t, strings.HasPrefix(num, "ORD-"))

		parts := strings.Split(num, "-")
		if assert.Len(t, parts, 5) {
			assert.Equal(t, "ORD", parts[0])
			assert.Len(t, parts[1], 8)
			assert.Len(t, parts[2], 6)
			assert.Len(t, parts[3], 3)
			assert.Len(t, parts[4], 4)
		}
	})

	t.Run("Uses the given instant", func(t *testing.T) {
		at := time.Date(2024, 3, 9, 7, 5, 1, 42*int(time.Millisecond), time.UTC)
		num := orderNumberAt(at)

		assert.True(t, strings.HasPrefix(num, "ORD-20240309-070501-042-"))
	})

	t.Run("Uniqueness", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 50; i++ {
			seen[GenerateOrderNumber()] = struct{}{}
		}
		// the random suffix makes a full collision across 50 draws vanishingly unlikely
		assert.Greater(t, len(seen), 40)
	})
}
