// Package catalog exposes the seed listings compiled into the binary.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"rentapp/pkg/domain"
)

//go:embed seed.json
var seedJSON []byte

var (
	loadOnce sync.Once
	seed     []domain.StaticProperty
	seedErr  error
)

// Load parses the embedded seed once and returns a copy of it.
func Load() ([]domain.StaticProperty, error) {
	loadOnce.Do(func() {
		seedErr = json.Unmarshal(seedJSON, &seed)
		if seedErr != nil {
			seedErr = fmt.Errorf("decode seed catalog: %w", seedErr)
		}
	})
	if seedErr != nil {
		return nil, seedErr
	}
	out := make([]domain.StaticProperty, len(seed))
	for i, p := range seed {
		p.Images = append([]string(nil), p.Images...)
		out[i] = p
	}
	return out, nil
}

// Source supplies static listings to the repository.
type Source func() ([]domain.StaticProperty, error)

// Embedded is the Source backed by the compiled-in seed.
var Embedded Source = Load

// Fixed returns a Source that always yields props. Used by tests and by
// deployments that ship their own seed.
func Fixed(props ...domain.StaticProperty) Source {
	return func() ([]domain.StaticProperty, error) {
		out := make([]domain.StaticProperty, len(props))
		copy(out, props)
		return out, nil
	}
}
