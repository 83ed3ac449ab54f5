package blocklist

import (
	"encoding/json"
	"fmt"
	"strings"

	"blocks/internal/domain"

	"github.com/google/uuid"
)

// List is an ordered sequence of blocks. Order is display and persistence
// order. A List value is owned by its caller; Reduce never mutates it.
type List []domain.Block

// New returns an empty list.
func New() List {
	return List{}
}

// NewBlock builds a block with a fresh identifier.
func NewBlock(t domain.BlockType, data json.RawMessage) domain.Block {
	return domain.Block{ID: uuid.New().String(), Type: t, Data: data}
}

// Index returns the position of the first block with the given id, or -1.
func (l List) Index(id string) int {
	for i, b := range l {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// IDs returns the block identifiers in order.
func (l List) IDs() []string {
	ids := make([]string, len(l))
	for i, b := range l {
		ids[i] = b.ID
	}
	return ids
}

func (l List) clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Parse decodes stored JSON content. Blank or null content is an empty list.
func Parse(content string) (List, error) {
	if strings.TrimSpace(content) == "" {
		return New(), nil
	}
	var l List
	if err := json.Unmarshal([]byte(content), &l); err != nil {
		return nil, fmt.Errorf("parse block list: %w", err)
	}
	if l == nil {
		return New(), nil
	}
	return l, nil
}

// Marshal encodes the list as stored JSON content.
func (l List) Marshal() (string, error) {
	if l == nil {
		l = New()
	}
	data, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("marshal block list: %w", err)
	}
	return string(data), nil
}
