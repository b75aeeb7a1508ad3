package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Inbox is a project's import/ directory. Statements dropped into it wait
// there until archived under import/processed/.
type Inbox struct {
	Dir string
}

// Statement is a CSV waiting in the inbox.
type Statement struct {
	Name string
	Path string
	Size int64
}

// NewInbox returns the inbox of the project at root.
func NewInbox(root string) Inbox {
	return Inbox{Dir: filepath.Join(root, "import")}
}

// ArchiveDir is where imported statements are moved.
func (in Inbox) ArchiveDir() string {
	return filepath.Join(in.Dir, "processed")
}

// Pending lists waiting CSV statements by name. A missing inbox has none.
func (in Inbox) Pending() ([]Statement, error) {
	entries, err := os.ReadDir(in.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var out []Statement
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		out = append(out, Statement{
			Name: e.Name(),
			Path: filepath.Join(in.Dir, e.Name()),
			Size: info.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Archive moves the named statement into the archive and returns its new
// path. A name already archived gets a numeric suffix, so monthly exports
// that reuse one file name never overwrite each other.
func (in Inbox) Archive(name string) (string, error) {
	dir := in.ArchiveDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating processed dir: %w", err)
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	dst := filepath.Join(dir, name)
	for n := 2; ; n++ {
		if _, err := os.Stat(dst); os.IsNotExist(err) {
			break
		}
		dst = filepath.Join(dir, base+"-"+strconv.Itoa(n)+ext)
	}

	if err := os.Rename(filepath.Join(in.Dir, name), dst); err != nil {
		return "", fmt.Errorf("archiving %s: %w", name, err)
	}
	return dst, nil
}
