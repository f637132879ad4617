package solver

// Item is a candidate project submitted for selection.
//
// Value is optional; when nil the item is worth its cost. Items are never
// modified by the solver.
type Item struct {
	ID    string   `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Cost  float64  `json:"cost" yaml:"cost" toml:"cost"`
	Value *float64 `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
}

// Worth returns the item's value, or its cost when no value was given.
func (it Item) Worth() float64 {
	if it.Value != nil {
		return *it.Value
	}
	return it.Cost
}

// Weighted reports whether the item carries an explicit value.
func (it Item) Weighted() bool { return it.Value != nil }

// ItemsFromCosts builds unweighted items from a list of costs.
// IDs are left empty; selections refer to items by position.
func ItemsFromCosts(costs []float64) []Item {
	items := make([]Item, len(costs))
	for i, c := range costs {
		items[i] = Item{Cost: c}
	}
	return items
}

// Float returns a pointer to v, for building weighted items inline.
func Float(v float64) *float64 { return &v }
