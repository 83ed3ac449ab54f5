package blocklist

import (
	"encoding/json"
	"errors"
	"fmt"

	"blocks/internal/domain"
)

// Names of the client action surface.
const (
	ActionAddBlock      = "addBlock"
	ActionDeleteBlock   = "deleteBlock"
	ActionUpdateBlock   = "updateBlock"
	ActionMoveBlockUp   = "moveBlockUp"
	ActionMoveBlockDown = "moveBlockDown"
	ActionReorderBlocks = "reorderBlocks"
)

var ErrUnknownAction = errors.New("unknown block action")

// DecodeAction turns a named client action and its JSON payload into an
// Action. addBlock payloads without an id get a generated one.
func DecodeAction(name string, payload json.RawMessage) (Action, error) {
	switch name {
	case ActionAddBlock:
		var b domain.Block
		if err := json.Unmarshal(payload, &b); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		if b.ID == "" {
			b.ID = NewBlock(b.Type, nil).ID
		}
		return Add{Block: b}, nil
	case ActionDeleteBlock, ActionMoveBlockUp, ActionMoveBlockDown:
		var id string
		if err := json.Unmarshal(payload, &id); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		switch name {
		case ActionDeleteBlock:
			return Delete{ID: id}, nil
		case ActionMoveBlockUp:
			return MoveUp{ID: id}, nil
		default:
			return MoveDown{ID: id}, nil
		}
	case ActionUpdateBlock:
		var p struct {
			ID   string          `json:"id"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return Update{ID: p.ID, Data: p.Data}, nil
	case ActionReorderBlocks:
		var p struct {
			Source      *int `json:"source"`
			Destination *int `json:"destination"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return Reorder{Source: p.Source, Destination: p.Destination}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
}

// Name returns the client name of a, or "" for actions it does not know.
func Name(a Action) string {
	switch a.(type) {
	case Add:
		return ActionAddBlock
	case Delete:
		return ActionDeleteBlock
	case Update:
		return ActionUpdateBlock
	case MoveUp:
		return ActionMoveBlockUp
	case MoveDown:
		return ActionMoveBlockDown
	case Reorder:
		return ActionReorderBlocks
	}
	return ""
}
