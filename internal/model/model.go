package model

// Package model contains domain records shared across layers.
// They carry JSON tags only; persistence encodes them as JSON documents.

// Identity is the caller resolved from a bearer token by the identity provider.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Account is a user created at the identity provider.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
