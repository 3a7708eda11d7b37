package builder

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Resolver maps dataset image references to filesystem locations. References
// that are already valid paths are used directly; bare filenames are looked
// up against a one-time recursive scan of the images root.
type Resolver struct {
	root   string
	byName map[string]string
}

// NewResolver scans root once and indexes every regular file by base name.
// When the same name appears more than once the first hit in walk order wins.
func NewResolver(root string) (*Resolver, error) {
	byName := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if _, ok := byName[name]; !ok {
			byName[name] = path
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan images root %s: %w", root, err)
	}
	return &Resolver{root: root, byName: byName}, nil
}

// Resolve returns the filesystem path for ref, or false if the reference
// cannot be located.
func (r *Resolver) Resolve(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return ref, true
	}
	path, ok := r.byName[filepath.Base(ref)]
	return path, ok
}
