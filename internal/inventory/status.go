package inventory

type Status string

const (
	StatusOutOfStock  Status = "Out of Stock"
	StatusLowStock    Status = "Low Stock"
	StatusInStock     Status = "In Stock"
	StatusOverstocked Status = "Overstocked"
)

// Classify compares stock on hand with the target. Extra only affects the
// shopping list, never the status.
func Classify(current, target int) Status {
	switch {
	case current <= 0:
		return StatusOutOfStock
	case current < target:
		return StatusLowStock
	case current == target:
		return StatusInStock
	default:
		return StatusOverstocked
	}
}

// NeedsRestock reports whether an item belongs on the shopping list. It must
// agree with restockCondition, which applies the same rule in SQL.
func NeedsRestock(current, target, extra int) bool {
	return current < target+extra
}

// Needed is the quantity to buy. Positive whenever NeedsRestock holds.
func Needed(current, target, extra int) int {
	return target - current + extra
}
