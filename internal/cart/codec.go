package cart

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nikolayk812/tourcart/internal/domain"
)

// SchemaVersion is written into every persisted snapshot.
const SchemaVersion = 1

type snapshot struct {
	Version int               `json:"version"`
	Items   []domain.LineItem `json:"items"`
}

func encodeItems(items []domain.LineItem) ([]byte, error) {
	if items == nil {
		items = []domain.LineItem{}
	}

	payload, err := json.Marshal(snapshot{Version: SchemaVersion, Items: items})
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return payload, nil
}

// decodeItems accepts the versioned envelope and the bare array written before
// versioning existed. Unknown fields are ignored and missing ones keep zero values.
func decodeItems(payload []byte) ([]domain.LineItem, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	var items []domain.LineItem

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("json.Unmarshal legacy: %w", err)
		}
	case '{':
		var snap snapshot
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return nil, fmt.Errorf("json.Unmarshal: %w", err)
		}
		if snap.Version < 1 {
			return nil, fmt.Errorf("version[%d] is not valid", snap.Version)
		}
		items = snap.Items
	default:
		return nil, fmt.Errorf("payload is not a cart snapshot")
	}

	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("item[%d] has no id", i)
		}
		if _, ok := seen[item.ID]; ok {
			return nil, fmt.Errorf("item[%d] id[%s] is duplicated", i, item.ID)
		}
		seen[item.ID] = struct{}{}
	}

	return items, nil
}
