// Package cache provides translation memory implementations: stores that map
// a source-text key to a previously parsed translation so a rerun does not pay
// for the same string twice.
package cache

import "github.com/ZaguanLabs/packlate"

// TranslationCache is the interface for the translation memory.
type TranslationCache = packlate.TranslationCache

// ExportableCache is a translation memory that can enumerate its keys.
type ExportableCache interface {
	TranslationCache
	// Keys returns all live keys in the cache.
	Keys() ([]string, error)
}

// CacheError is an alias to the main package error type.
type CacheError = packlate.CacheError
