package strictkeys

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// DecodeFunc decodes raw input into zero or more documents built from D, A
// and scalar values. Parse failures wrap ErrInvalidDocument.
type DecodeFunc func(data []byte) ([]any, error)

// Format is a named document decoder bound to a set of file extensions.
type Format struct {
	Name       string
	Extensions []string
	Decode     DecodeFunc
}

// Registry holds the formats available for rules and target documents.
type Registry struct {
	mu         sync.RWMutex
	formats    map[string]Format
	extensions map[string]string // ".ext" -> format name
}

func newRegistry() *Registry {
	return &Registry{
		formats:    make(map[string]Format),
		extensions: make(map[string]string),
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Register adds f to the registry. Names and extensions must be unique.
func (r *Registry) Register(f Format) error {
	if f.Name == "" {
		return fmt.Errorf("format name must not be empty")
	}
	if f.Decode == nil {
		return fmt.Errorf("format %q has no decode function", f.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formats[f.Name]; exists {
		return fmt.Errorf("format %q already registered", f.Name)
	}
	exts := make([]string, 0, len(f.Extensions))
	for _, ext := range f.Extensions {
		ext = normalizeExt(ext)
		if owner, exists := r.extensions[ext]; exists {
			return fmt.Errorf("format %q extension %q already registered by %q", f.Name, ext, owner)
		}
		if slices.Contains(exts, ext) {
			return fmt.Errorf("format %q lists extension %q twice", f.Name, ext)
		}
		exts = append(exts, ext)
	}

	f.Extensions = exts
	r.formats[f.Name] = f
	for _, ext := range exts {
		r.extensions[ext] = f.Name
	}
	return nil
}

// Lookup returns the format registered under name.
func (r *Registry) Lookup(name string) (Format, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formats[name]
	if !ok {
		return Format{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownFormat, name, strings.Join(r.namesLocked(), ", "))
	}
	return f, nil
}

// ForPath returns the format registered for the extension of path. Extension
// matching is case-insensitive.
func (r *Registry) ForPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return Format{}, fmt.Errorf("%w: %q has no file extension", ErrUnknownFormat, path)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.extensions[normalizeExt(ext)]
	if !ok {
		return Format{}, fmt.Errorf("%w: no format for extension %q", ErrUnknownFormat, ext)
	}
	return r.formats[name], nil
}

// Names returns the registered format names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.formats))
	for name := range r.formats {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
