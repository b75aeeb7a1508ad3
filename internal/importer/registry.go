// Package importer turns bank statement CSVs into transactions in the internal
// sign convention and manages the project's import inbox.
package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/cashflow/internal/model"
)

// ErrUnknownFormat is returned by Formats.Lookup for an unregistered name.
var ErrUnknownFormat = errors.New("unknown import format")

// Parser reads one statement. Returned amounts are positive for income.
type Parser interface {
	Parse(r io.Reader) ([]model.Transaction, error)
	Format() string
}

// Formats maps lower-case format names to their parsers.
type Formats map[string]Parser

// NewFormats returns every built-in format. conv is how generic CSVs sign
// amounts; bank formats know their own convention.
func NewFormats(conv model.SignConvention) Formats {
	f := Formats{}
	for _, p := range []Parser{&ChaseParser{}, &GenericParser{Convention: conv}} {
		f[p.Format()] = p
	}
	return f
}

// Lookup returns the parser for name, ignoring case.
func (f Formats) Lookup(name string) (Parser, error) {
	p, ok := f[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownFormat, name, strings.Join(f.Names(), ", "))
	}
	return p, nil
}

// Names returns the registered format names in order.
func (f Formats) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseFile parses the statement at path with p.
func ParseFile(p Parser, path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	txns, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s as %s: %w", filepath.Base(path), p.Format(), err)
	}
	return txns, nil
}
