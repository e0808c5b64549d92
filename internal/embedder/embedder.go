// Package embedder produces deterministic local sentence embeddings for
// semantic segmentation. No network calls: vectors come from hashed
// bag-of-words features, which is enough to measure topical drift between
// adjacent sentences.
package embedder

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
	"math"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Dimension of produced vectors.
const Dimension = 256

const defaultCacheSize = 8192

// Embedder converts sentences to fixed-size vectors with an LRU cache keyed
// by content hash. One Embedder is scoped to a single worker and recreated
// on worker recycle; it is not safe for concurrent use.
type Embedder struct {
	cache *lru.Cache[string, []float32]
}

// New creates an embedder with its cache.
func New() *Embedder {
	// lru.New errors only on a non-positive size.
	cache, _ := lru.New[string, []float32](defaultCacheSize)
	return &Embedder{cache: cache}
}

// Embed returns the vector for text, from cache when possible.
func (e *Embedder) Embed(text string) []float32 {
	key := contentHash(text)
	if v, ok := e.cache.Get(key); ok {
		return v
	}
	v := embed(text)
	e.cache.Add(key, v)
	return v
}

// embed hashes each token (and token bigram, for a little word-order
// signal) into a bucket and L2-normalizes the result.
func embed(text string) []float32 {
	v := make([]float32, Dimension)
	tokens := tokenize(text)
	for i, tok := range tokens {
		v[bucket(tok)]++
		if i > 0 {
			v[bucket(tokens[i-1]+" "+tok)] += 0.5
		}
	}
	normalize(v)
	return v
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?()[]\"'")
		if len(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}

func bucket(token string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % Dimension)
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1.0 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

// Cosine returns the cosine similarity of two vectors. Zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func contentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
