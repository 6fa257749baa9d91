// Package pricing computes reservation totals. All amounts are
// integer cents, so the arithmetic is exact and the engine is a pure
// function of its inputs.
package pricing

// Seat prices in cents.
const (
	BaseSeatCents    uint32 = 1099
	PremiumSeatCents uint32 = 1699
)

// PremiumDiscountPct is the percentage taken off the grand total for
// premium users.
const PremiumDiscountPct = 15

// Combo is one entry of the static snack catalog.
type Combo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  uint32 `json:"price_cents"`
	PremiumOnly bool   `json:"premium_only"`
}

// catalog is immutable after init; lookups go through ComboPrice.
var catalog = []Combo{
	{Name: "Combo Clásico", Description: "Popcorn mediano + Bebida mediana", PriceCents: 1299},
	{Name: "Combo Familiar", Description: "Popcorn grande + 2 Bebidas grandes", PriceCents: 1999},
	{Name: "Combo Dulce", Description: "Nachos + Bebida + Dulces", PriceCents: 1599},
	{Name: "Solo Bebida", Description: "Bebida grande de tu preferencia", PriceCents: 499},
	{Name: "Solo Popcorn", Description: "Popcorn grande con mantequilla", PriceCents: 899},
	{Name: "Combo VIP", Description: "Popcorn gourmet + Bebida premium + Snacks selectos", PriceCents: 2499, PremiumOnly: true},
	{Name: "Combo Ejecutivo", Description: "Bandeja de sushi + Sake + Postre", PriceCents: 3499, PremiumOnly: true},
	{Name: "Combo Premium", Description: "Todo incluido + servicio a la butaca", PriceCents: 4299, PremiumOnly: true},
}

// Combos returns the catalog visible to a user: regular combos
// always, premium-only combos when isPremium is set.
func Combos(isPremium bool) []Combo {
	out := make([]Combo, 0, len(catalog))
	for _, c := range catalog {
		if c.PremiumOnly && !isPremium {
			continue
		}
		out = append(out, c)
	}
	return out
}

// RegularComboNames lists the names every user can order. Used by
// the bot simulator to pick a random combo.
func RegularComboNames() []string {
	names := make([]string, 0, len(catalog))
	for _, c := range catalog {
		if !c.PremiumOnly {
			names = append(names, c.Name)
		}
	}
	return names
}

// ComboPrice resolves a combo name to its price. Premium-only combos
// price to zero for non-premium users, and an unknown name also
// prices to zero rather than failing; the catalog is deliberately
// lenient about names it does not know.
func ComboPrice(name string, isPremium bool) uint32 {
	for _, c := range catalog {
		if c.Name != name {
			continue
		}
		if c.PremiumOnly && !isPremium {
			return 0
		}
		return c.PriceCents
	}
	return 0
}

// Item is one priced reservation: the seat class plus an optional
// combo.
type Item struct {
	SeatPremium bool
	Combo       *string
}

// Cost totals the items in cents. Premium users get the discount
// applied to the grand total, rounded half up to a whole cent. The
// sum is commutative, so input order never changes the result.
func Cost(items []Item, isPremium bool) uint32 {
	var total uint64
	for _, it := range items {
		if it.SeatPremium {
			total += uint64(PremiumSeatCents)
		} else {
			total += uint64(BaseSeatCents)
		}
		if it.Combo != nil {
			total += uint64(ComboPrice(*it.Combo, isPremium))
		}
	}
	if isPremium {
		total = (total*(100-PremiumDiscountPct) + 50) / 100
	}
	return uint32(total)
}
