package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Keyer builds cache keys for every kind of cached entry.
type Keyer interface {
	// HTTPKey identifies a registry response, e.g. ("pypi", "requests").
	HTTPKey(namespace, key string) string

	// ResolutionKey identifies the resolution map of one project.
	ResolutionKey(projectRoot string) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ResolutionKey returns "resolution:<sha256(root)>"; project roots can hold
// any character, hashes cannot.
func (DefaultKeyer) ResolutionKey(projectRoot string) string {
	return "resolution:" + Digest(projectRoot)
}

// Digest is the hex SHA-256 of s. It names resolution keys and the
// FileCache entry files.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
