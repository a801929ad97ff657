package shortener

import (
	"math"

	"github.com/jxskiss/base62"
	"github.com/spaolacci/murmur3"
)

// HashFunc maps a long URL to a non-negative integer.
type HashFunc func(url string) int64

// EncodeFunc renders a hash value as a short code.
type EncodeFunc func(hash int64) string

// MurmurHash hashes the UTF-8 bytes of the URL with murmur3-32. Negative
// signed values are reflected into range with math.MaxInt32 - v, which keeps
// codes bit-for-bit compatible with previously issued ones even though it is
// not a true absolute value.
func MurmurHash(url string) int64 {
	v := int32(murmur3.Sum32([]byte(url)))
	if v < 0 {
		return math.MaxInt32 - int64(v)
	}

	return int64(v)
}

// base62Encoding orders digits before letters. The library default is
// A-Za-z0-9, which would issue different codes for the same hash.
var base62Encoding = base62.NewEncoding("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")

// Base62Encode renders the hash in base62 (0-9A-Za-z, most significant digit
// first).
func Base62Encode(hash int64) string {
	return string(base62Encoding.FormatInt(hash))
}

// Encode is the default URL-to-code pipeline: murmur3 then base62. It is pure
// and deterministic; collision handling lives in the resolver.
func Encode(url string) string {
	return Base62Encode(MurmurHash(url))
}
