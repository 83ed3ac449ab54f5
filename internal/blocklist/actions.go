package blocklist

import (
	"encoding/json"

	"blocks/internal/domain"
)

// Action is a single synchronous transition of a List.
type Action interface {
	apply(List) List
}

// Reduce returns the state that results from applying action to state.
// Actions targeting a missing block or an invalid index return state as is.
func Reduce(state List, action Action) List {
	if action == nil {
		return state
	}
	return action.apply(state)
}

// Add appends Block to the end of the list.
type Add struct {
	Block domain.Block
}

func (a Add) apply(l List) List {
	out := make(List, len(l), len(l)+1)
	copy(out, l)
	return append(out, a.Block)
}

// Delete removes the first block with ID.
type Delete struct {
	ID string
}

func (a Delete) apply(l List) List {
	i := l.Index(a.ID)
	if i < 0 {
		return l
	}
	out := make(List, 0, len(l)-1)
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...)
}

// Update replaces the payload of the first block with ID. Identifier, type
// and position are kept.
type Update struct {
	ID   string
	Data json.RawMessage
}

func (a Update) apply(l List) List {
	i := l.Index(a.ID)
	if i < 0 {
		return l
	}
	out := l.clone()
	out[i].Data = a.Data
	return out
}

// MoveUp swaps the first block with ID and its predecessor.
type MoveUp struct {
	ID string
}

func (a MoveUp) apply(l List) List {
	i := l.Index(a.ID)
	if i <= 0 {
		return l
	}
	return Move(l, i, i-1)
}

// MoveDown swaps the first block with ID and its successor. The last block
// stays where it is.
type MoveDown struct {
	ID string
}

func (a MoveDown) apply(l List) List {
	i := l.Index(a.ID)
	if i < 0 || i >= len(l)-1 {
		return l
	}
	return Move(l, i, i+1)
}

// Reorder moves the block at Source to Destination. Index 0 is a valid
// position; a nil index means the drop had no target and nothing happens.
type Reorder struct {
	Source      *int
	Destination *int
}

func (a Reorder) apply(l List) List {
	if a.Source == nil || a.Destination == nil {
		return l
	}
	return Move(l, *a.Source, *a.Destination)
}
