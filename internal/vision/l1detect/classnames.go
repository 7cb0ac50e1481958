package l1detect

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// ClassNames maps detector class ids to human-readable labels. It is
// injected configuration: the tracking core never hardcodes a table.
type ClassNames map[int]string

// Name returns the label for a class id, falling back to the stringified
// numeric id when the table has no entry (or the table is nil).
func (c ClassNames) Name(classID int) string {
	if name, ok := c[classID]; ok {
		return name
	}
	return strconv.Itoa(classID)
}

// LoadClassNames reads a class-name table from a JSON file mapping
// stringified class ids to labels, e.g. {"0":"person","2":"car"}.
func LoadClassNames(path string) (ClassNames, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class names file: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse class names JSON: %w", err)
	}

	names := make(ClassNames, len(raw))
	for k, v := range raw {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("class names key %q is not an integer: %w", k, err)
		}
		if id < 0 {
			return nil, fmt.Errorf("class names key %d is negative", id)
		}
		names[id] = v
	}
	return names, nil
}
