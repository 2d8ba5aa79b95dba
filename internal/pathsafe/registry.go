package pathsafe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// Registry maps resource keys (remote URLs, local source paths) to output
// file names for the duration of one build. Names take the form
// <stem>-<hash><ext>, where hash is a prefix of the SHA-256 of the key, so a
// key always maps to the same name regardless of claim order. When two keys
// share a name prefix the hash is lengthened. Safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	byKey  map[string]string
	owners map[string]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:  make(map[string]string),
		owners: make(map[string]string),
	}
}

var hashLengths = []int{8, 16, 32, 64}

// Name returns the file name assigned to key, assigning one on first use.
// stem must already be sanitized (see Stem); ext is given without the dot.
func (r *Registry) Name(key, stem, ext string) (string, error) {
	if err := ValidateSegment(stem); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if name, ok := r.byKey[key]; ok {
		return name, nil
	}

	sum := sha256.Sum256([]byte(key))
	digest := hex.EncodeToString(sum[:])
	for _, n := range hashLengths {
		name := stem + "-" + digest[:n]
		if ext != "" {
			name += "." + ext
		}
		if owner, taken := r.owners[name]; taken && owner != key {
			continue
		}
		if err := ValidateSegment(name); err != nil {
			return "", err
		}
		r.byKey[key] = name
		r.owners[name] = key
		return name, nil
	}
	return "", fmt.Errorf("%w: no free name for %q", ErrUnsafeName, stem)
}

// Lookup returns the name previously assigned to key.
func (r *Registry) Lookup(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.byKey[key]
	return name, ok
}

// Len returns the number of assigned names.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}
