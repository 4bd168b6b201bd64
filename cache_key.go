package restclient

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ambiyansyah-risyal/restclient/internal/digest"
)

// CacheKey identifies a resolved request in a CacheStore.
type CacheKey string

// KeyHasher maps a canonical request string to a fixed-size digest.
type KeyHasher func(canonical string) string

// DefaultKeyHasher hashes with MD5 and returns 32 hex characters.
func DefaultKeyHasher(canonical string) string {
	return digest.MD5Hex(canonical)
}

// KeyFor derives the cache key of r. Requests with the same method, URL,
// parameter set and body produce the same key regardless of parameter
// insertion order. Headers do not take part.
func KeyFor(r *ResolvedRequest, hasher KeyHasher) CacheKey {
	if hasher == nil {
		hasher = DefaultKeyHasher
	}
	return CacheKey(hasher(canonicalForm(r)))
}

// canonicalForm renders METHOD, URL, the query-escaped parameters sorted by
// key and the body digest on separate lines. List values expand to repeated
// keys, the same way they are sent.
func canonicalForm(r *ResolvedRequest) string {
	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteByte('\n')
	b.WriteString(r.URL.String())
	b.WriteByte('\n')
	b.WriteString(formValues(r.Parameters).Encode())
	b.WriteByte('\n')
	b.WriteString(digest.MD5HexBytes(r.Body))
	return b.String()
}

// canonicalValue renders a parameter value deterministically. Strings are
// used verbatim; everything else is JSON encoded, which sorts map keys.
func canonicalValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
