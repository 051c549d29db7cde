// Package provider implements translation backends for packlate.
package provider

import "github.com/ZaguanLabs/packlate"

// Backend is an alias to the main package interface for convenience.
type Backend = packlate.Backend

// Session is an alias to the main package interface.
type Session = packlate.Session

// Reply is an alias to the main package type.
type Reply = packlate.Reply
