// Package auth supplies the bearer token consumed by the triage and
// vet-locator clients. The core never issues or refreshes credentials; it
// only reads a session it was handed.
package auth

import (
	"context"
	"errors"
)

// ErrNoSession signals that no usable session exists and the user must log
// in again.
var ErrNoSession = errors.New("no active session")

// TokenProvider yields the current bearer token. Implementations may block,
// hence the context.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticProvider serves a fixed token, mostly for tests and one-off tooling.
type StaticProvider string

func (p StaticProvider) Token(_ context.Context) (string, error) {
	if p == "" {
		return "", ErrNoSession
	}
	return string(p), nil
}
