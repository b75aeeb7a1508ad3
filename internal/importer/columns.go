package importer

import (
	"errors"
	"fmt"
	"strings"
)

var errMissingColumn = errors.New("missing required column")

// columns locates fields by their lower-cased header name.
type columns map[string]int

func readColumns(header []string, required ...string) (columns, error) {
	c := make(columns, len(header))
	for i, h := range header {
		c[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := c[name]; !ok {
			return nil, fmt.Errorf("%w: %s", errMissingColumn, name)
		}
	}
	return c, nil
}

// get returns the trimmed field, or "" when the column or cell is absent.
func (c columns) get(rec []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// amountText strips thousands separators and currency symbols.
func amountText(s string) string {
	return strings.NewReplacer(",", "", "$", "").Replace(s)
}
