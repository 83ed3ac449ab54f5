package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

type BlockType string

const (
	BlockTypeText      BlockType = "blockText"
	BlockTypeTitle     BlockType = "blockTitle"
	BlockTypeImage     BlockType = "blockImage"
	BlockTypeVideo     BlockType = "blockVideo"
	BlockTypeList      BlockType = "blockList"
	BlockTypeRaw       BlockType = "blockRaw"
	BlockTypeSeparator BlockType = "blockSeparator"
)

// Block is a single content unit inside a block group's JSON content.
// Data is kept opaque; only the editor front-end interprets it.
//
// Extra holds every other member of the stored object, verbatim, so content
// written by a newer front-end survives an edit. A type that is not a plain
// string is kept there too, under "type".
type Block struct {
	ID    string                     `json:"id"`
	Type  BlockType                  `json:"type,omitempty"`
	Data  json.RawMessage            `json:"data,omitempty"`
	Extra map[string]json.RawMessage `json:"-"`
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*b = Block{}
	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &b.ID); err != nil {
			return fmt.Errorf("block id: %w", err)
		}
		delete(fields, "id")
	}
	if raw, ok := fields["type"]; ok {
		var t string
		if json.Unmarshal(raw, &t) == nil {
			b.Type = BlockType(t)
			delete(fields, "type")
		}
	}
	if raw, ok := fields["data"]; ok {
		b.Data = raw
		delete(fields, "data")
	}
	if len(fields) > 0 {
		b.Extra = fields
	}
	return nil
}

// MarshalJSON writes id, type and data first, then the extra members in key
// order.
func (b Block) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, raw []byte) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return fmt.Errorf("block %s: %w", key, err)
		}
		buf.Write(compact.Bytes())
		return nil
	}

	id, _ := json.Marshal(b.ID)
	if err := write("id", id); err != nil {
		return nil, err
	}
	switch {
	case b.Type != "":
		t, _ := json.Marshal(string(b.Type))
		if err := write("type", t); err != nil {
			return nil, err
		}
	case b.Extra["type"] != nil:
		if err := write("type", b.Extra["type"]); err != nil {
			return nil, err
		}
	}
	if len(b.Data) > 0 {
		if err := write("data", b.Data); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(b.Extra))
	for k := range b.Extra {
		if k != "id" && k != "type" && k != "data" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := write(k, b.Extra[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
