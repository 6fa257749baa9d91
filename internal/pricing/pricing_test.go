package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestCostBaseSeats(t *testing.T) {
	items := []Item{{}, {}, {}}

	assert.Equal(t, uint32(3297), Cost(items, false), "three base seats")
	assert.Equal(t, uint32(2802), Cost(items, true), "discounted total rounds half up")
}

func TestCostWithCombos(t *testing.T) {
	tests := []struct {
		name      string
		items     []Item
		isPremium bool
		want      uint32
	}{
		{
			name:  "base seat with classic combo",
			items: []Item{{Combo: strPtr("Combo Clásico")}},
			want:  1099 + 1299,
		},
		{
			name:  "premium seat no combo",
			items: []Item{{SeatPremium: true}},
			want:  1699,
		},
		{
			name:  "vip combo ignored for non-premium user",
			items: []Item{{Combo: strPtr("Combo VIP")}},
			want:  1099,
		},
		{
			name:      "vip combo counted and discounted for premium user",
			items:     []Item{{SeatPremium: true, Combo: strPtr("Combo VIP")}},
			isPremium: true,
			want:      (uint32(1699+2499)*85 + 50) / 100,
		},
		{
			name:  "unknown combo prices to zero",
			items: []Item{{Combo: strPtr("Combo Inexistente")}},
			want:  1099,
		},
		{
			name: "empty order",
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Cost(tt.items, tt.isPremium))
		})
	}
}

func TestCostOrderIndependent(t *testing.T) {
	a := []Item{
		{SeatPremium: true, Combo: strPtr("Combo Familiar")},
		{Combo: strPtr("Solo Bebida")},
		{},
	}
	b := []Item{a[2], a[0], a[1]}

	assert.Equal(t, Cost(a, false), Cost(b, false))
	assert.Equal(t, Cost(a, true), Cost(b, true))
}

func TestCombosVisibility(t *testing.T) {
	regular := Combos(false)
	assert.Len(t, regular, 5)
	for _, c := range regular {
		assert.False(t, c.PremiumOnly, c.Name)
	}

	all := Combos(true)
	assert.Len(t, all, 8)
}

func TestComboPrice(t *testing.T) {
	assert.Equal(t, uint32(2499), ComboPrice("Combo VIP", true))
	assert.Equal(t, uint32(0), ComboPrice("Combo VIP", false))
	assert.Equal(t, uint32(1599), ComboPrice("Combo Dulce", false))
	assert.Equal(t, uint32(0), ComboPrice("no such combo", true))
}
