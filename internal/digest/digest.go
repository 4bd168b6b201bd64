// Package digest holds the hashing primitive used for cache keys.
package digest

import (
	"crypto/md5"
	"encoding/hex"
)

// MD5Hex returns the lowercase hexadecimal MD5 digest of s.
func MD5Hex(s string) string {
	return MD5HexBytes([]byte(s))
}

// MD5HexBytes returns the lowercase hexadecimal MD5 digest of b.
func MD5HexBytes(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}
