// Package seed loads fixture records into the store at startup.
// Fixtures are YAML documents; JSON files are accepted as well since JSON
// is valid YAML.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mockapi/mockapi/internal/model"
)

// ErrInvalidFixture is returned when a fixture file is not a list of objects.
var ErrInvalidFixture = errors.New("invalid seed fixture")

// Importer stores a fixture record.
type Importer interface {
	ImportRecord(ctx context.Context, fields map[string]any) (model.Record, error)
}

// fixtureFile is the wrapped fixture form: {records: [...]}.
type fixtureFile struct {
	Records []map[string]any `yaml:"records"`
}

// Parse decodes fixture data. Both a top-level list of objects and a
// mapping with a "records" list are accepted.
func Parse(data []byte) ([]map[string]any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	var entries []map[string]any
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&entries); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
		}
	case yaml.MappingNode:
		var file fixtureFile
		if err := root.Decode(&file); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
		}
		entries = file.Records
	default:
		return nil, fmt.Errorf("%w: expected a list of objects", ErrInvalidFixture)
	}

	if err := checkEncodable(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// checkEncodable rejects entries that GET /records could not serve back,
// such as nested mappings with non-string keys or .nan values.
func checkEncodable(entries []map[string]any) error {
	for i, entry := range entries {
		if _, err := json.Marshal(entry); err != nil {
			return fmt.Errorf("%w: entry %d is not representable as JSON: %v", ErrInvalidFixture, i, err)
		}
	}
	return nil
}

// LoadFile reads and imports every record in the fixture at path.
// It returns the number of records imported.
func LoadFile(ctx context.Context, path string, importer Importer) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}

	entries, err := Parse(data)
	if err != nil {
		return 0, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for i, entry := range entries {
		if entry == nil {
			return i, fmt.Errorf("%w: entry %d is not an object", ErrInvalidFixture, i)
		}
		if _, err := importer.ImportRecord(ctx, entry); err != nil {
			return i, fmt.Errorf("failed to import seed entry %d: %w", i, err)
		}
	}

	return len(entries), nil
}
