package cache

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// Key derives a deterministic cache key from a source name and request
// parameters. Identical semantic parameters always produce the identical key:
// params are joined in sorted key order before hashing, so map iteration
// order never leaks into the key.
func Key(source string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(source)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}

	sum := md5.Sum([]byte(b.String()))
	return source + ":" + hex.EncodeToString(sum[:])
}
