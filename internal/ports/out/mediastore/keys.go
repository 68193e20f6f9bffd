package mediastore

import (
	"fmt"
	"path"
	"strings"
)

// CleanKey normalizes a slash-separated key and rejects keys that escape the media root.
func CleanKey(key string) (string, error) {
	if key == "" || strings.ContainsRune(key, '\\') || strings.ContainsRune(key, 0) {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", fmt.Errorf("invalid media key %q", key)
		}
	}
	c := strings.TrimPrefix(path.Clean("/"+key), "/")
	if c == "" {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	return c, nil
}
