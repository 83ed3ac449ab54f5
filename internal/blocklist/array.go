package blocklist

// Move returns a copy of items with the element at from removed and
// reinserted at to. Out-of-range indices return items unchanged.
func Move[T any](items []T, from, to int) []T {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) || from == to {
		return items
	}
	out := make([]T, 0, len(items))
	moved := items[from]
	for i, it := range items {
		if i == from {
			continue
		}
		out = append(out, it)
	}
	out = append(out, moved) // grow by one, then shift right
	copy(out[to+1:], out[to:len(out)-1])
	out[to] = moved
	return out
}
