package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// Store is byte-level access to documents addressed by root-relative, slash-separated paths.
//
// Contract:
// - Get returns ErrNotFound when the document does not exist.
// - Put overwrites; a subsequent Get observes the new value. The parent directory must exist (ErrNotFound otherwise).
// - Mkdir returns ErrAlreadyExists when the directory exists; its parent must exist.
type Store interface {
	Get(ctx context.Context, p string) ([]byte, error)
	Put(ctx context.Context, p string, data []byte) error
	Mkdir(ctx context.Context, p string) error
}

// Read decodes the document at p into a T.
func Read[T any](ctx context.Context, s Store, p string) (T, error) {
	var v T
	raw, err := s.Get(ctx, p)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %s: %v", ErrCorrupt, p, err)
	}
	return v, nil
}

// Write encodes v as indented JSON and stores it at p.
func Write(ctx context.Context, s Store, p string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", p, err)
	}
	return s.Put(ctx, p, raw)
}

// Clean normalizes a root-relative path and rejects anything escaping the root.
// The root itself cleans to "".
func Clean(p string) (string, error) {
	if strings.ContainsRune(p, '\\') || strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	c := path.Clean("/" + p)
	if c == "/" {
		return "", nil
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	return strings.TrimPrefix(c, "/"), nil
}

// Parent returns the cleaned parent directory of a cleaned path ("" for top-level entries).
func Parent(clean string) string {
	dir := path.Dir(clean)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}
