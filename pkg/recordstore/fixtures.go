package recordstore

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadFixtures reads a YAML document mapping collection names to record lists
// into a new MemoryStore.
func LoadFixtures(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	store, err := ParseFixtures(data)
	if err != nil {
		return nil, fmt.Errorf("fixtures %s: %w", path, err)
	}
	return store, nil
}

// ParseFixtures decodes fixture YAML. Collections are inserted in name order.
func ParseFixtures(data []byte) (*MemoryStore, error) {
	var doc map[string][]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	store := NewMemoryStore()
	for _, name := range names {
		for _, raw := range doc[name] {
			store.Put(name, Record(raw))
		}
	}
	return store, nil
}
