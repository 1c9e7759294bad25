package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopK(t *testing.T) {
	t.Run("KeepsBestK", func(t *testing.T) {
		tk := NewTopK(2)
		tk.Push(0, 5)
		tk.Push(1, 1)
		tk.Push(2, 3)
		tk.Push(3, 0.5)

		got := tk.Results()
		assert.Equal(t, []Item{{Position: 3, Distance: 0.5}, {Position: 1, Distance: 1}}, got)
	})

	t.Run("FewerThanK", func(t *testing.T) {
		tk := NewTopK(5)
		tk.Push(1, 2)
		tk.Push(0, 1)

		got := tk.Results()
		assert.Equal(t, []Item{{Position: 0, Distance: 1}, {Position: 1, Distance: 2}}, got)
	})

	t.Run("TieBreakByPosition", func(t *testing.T) {
		tk := NewTopK(2)
		tk.Push(7, 1)
		tk.Push(2, 1)
		tk.Push(5, 1)

		got := tk.Results()
		assert.Equal(t, []Item{{Position: 2, Distance: 1}, {Position: 5, Distance: 1}}, got)
	})
}
