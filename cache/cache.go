// Package cache stores serialized valuation results keyed by scenario
// fingerprint, so repeated runs over the same basis skip the computation.
package cache

// Cache is the minimal key-value surface the scenario runner needs.
type Cache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}
