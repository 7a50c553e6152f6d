package cache

import (
	"fmt"
	"strings"
)

// GenerateKey creates a cache key with prefix and ID.
func GenerateKey(prefix string, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}

// GenerateKeys applies GenerateKey to every id.
func GenerateKeys(prefix string, ids ...string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = GenerateKey(prefix, id)
	}
	return keys
}

// TrimKey strips the prefix added by GenerateKey.
func TrimKey(prefix, key string) string {
	return strings.TrimPrefix(key, prefix+":")
}
