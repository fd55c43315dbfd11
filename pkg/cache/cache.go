// Package cache stores rendered artifacts and page plans.
//
// # Backends
//
// Every backend implements [Cache]:
//
//   - [NullCache]: stores nothing (caching disabled)
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: a shared Redis instance, for `cadpage serve`
//   - [MongoCache]: a MongoDB collection with a TTL index
//
// # Keys
//
// Keys are produced by a [Keyer] so that every input that changes the output
// also changes the key. [DefaultKeyer] hashes the drawing content together
// with the export options; [ScopedKeyer] adds a namespace prefix.
//
//	k := cache.NewDefaultKeyer()
//	key := k.ArtifactKey(cache.Hash(drawingJSON), cache.ArtifactKeyOpts{
//	    PlanKeyOpts: cache.PlanKeyOpts{Layout: "ISO A4"},
//	    Format:      "pdf",
//	})
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default lifetimes of cached values.
const (
	TTLPlan     = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
	TTLPreview  = time.Hour
)

// Key types reported to the cache hooks.
const (
	KeyTypePlan     = "plan"
	KeyTypeArtifact = "artifact"
	KeyTypePreview  = "preview"
)

// PlanKeyOpts are the inputs that change a page plan.
type PlanKeyOpts struct {
	Layout  string   `json:"layout,omitempty"`
	View    string   `json:"view,omitempty"`
	Catalog []string `json:"catalog,omitempty"`
	Margin  float64  `json:"margin"`
}

// ArtifactKeyOpts are the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	PlanKeyOpts
	Format    string  `json:"format"`
	Theme     string  `json:"theme,omitempty"`
	LineWidth float64 `json:"line_width,omitempty"`
	NoText    bool    `json:"no_text,omitempty"`
	Scale     float64 `json:"scale,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	PlanKey(drawingHash string, opts PlanKeyOpts) string
	ArtifactKey(drawingHash string, opts ArtifactKeyOpts) string
	PreviewKey(drawingHash string, width, height int) string
}

// DefaultKeyer hashes options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PlanKey returns "plan:<sha256>".
func (DefaultKeyer) PlanKey(drawingHash string, opts PlanKeyOpts) string {
	return hashKey(KeyTypePlan, drawingHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(drawingHash string, opts ArtifactKeyOpts) string {
	return hashKey(KeyTypeArtifact, drawingHash, opts)
}

// PreviewKey returns "preview:<sha256>".
func (DefaultKeyer) PreviewKey(drawingHash string, width, height int) string {
	return hashKey(KeyTypePreview, drawingHash, width, height)
}

// keyVersion is mixed into every key; bump it when an artifact encoding
// changes so stale entries are no longer found.
const keyVersion = 1

// hashKey returns "kind:<sha256 of parts>".
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(append([]any{keyVersion}, parts...))
	sum := sha256.Sum256(data)
	return kind + ":" + hex.EncodeToString(sum[:])
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// =============================================================================
// NullCache
// =============================================================================

// NullCache stores nothing; every Get misses.
type NullCache struct{}

var _ Cache = (*NullCache)(nil)

// NewNullCache returns a cache that disables caching.
func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }
