package directive

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/minio/highwayhash"
)

var fingerprintKey = []byte("ssilint-directive-cache-key-0001")

// Fingerprint returns a content hash of text.
func Fingerprint(text string) uint64 {
	return highwayhash.Sum64([]byte(text), fingerprintKey)
}

// Scanner extracts directives from document text.
type Scanner interface {
	Scan(text string) *Result
}

// ScannerFunc adapts a function to Scanner.
type ScannerFunc func(text string) *Result

func (f ScannerFunc) Scan(text string) *Result { return f(text) }

type cacheKey struct {
	sum uint64
	n   int
}

// CachedScanner memoises Scan by document content. Returned results are
// shared between callers and must be treated as read-only.
type CachedScanner struct {
	cache *lru.Cache[cacheKey, *Result]
}

// NewCachedScanner creates a scanner caching up to size distinct documents.
func NewCachedScanner(size int) (*CachedScanner, error) {
	if size <= 0 {
		size = 512
	}
	cache, err := lru.New[cacheKey, *Result](size)
	if err != nil {
		return nil, err
	}
	return &CachedScanner{cache: cache}, nil
}

func (c *CachedScanner) Scan(text string) *Result {
	if c == nil || c.cache == nil {
		return Scan(text)
	}
	key := cacheKey{sum: Fingerprint(text), n: len(text)}
	if r, ok := c.cache.Get(key); ok {
		return r
	}
	r := Scan(text)
	c.cache.Add(key, r)
	return r
}

// Len reports how many documents are cached.
func (c *CachedScanner) Len() int {
	if c == nil || c.cache == nil {
		return 0
	}
	return c.cache.Len()
}
