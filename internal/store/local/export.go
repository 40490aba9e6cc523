package local

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GaxiSz/camping-tent-manager/internal/models"
	"github.com/GaxiSz/camping-tent-manager/internal/store"
)

// Export serializes the stored document as indented JSON.
func (s *Store) Export(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export document: %w", err)
	}
	return string(data), nil
}

// Import replaces the stored document wholesale with raw. The payload
// must be a JSON object; anything else fails with ErrInvalidImport and
// leaves the stored document untouched. A missing schemaVersion is
// injected as the current version. No merge, no entity validation.
func (s *Store) Import(ctx context.Context, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidImport, err)
	}
	if obj == nil {
		return fmt.Errorf("%w: payload is not an object", store.ErrInvalidImport)
	}

	if v, ok := obj["schemaVersion"]; !ok || v == nil {
		obj["schemaVersion"] = models.SchemaVersion
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal import: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("store import: %w", err)
	}
	return nil
}
