package repository

import (
	"context"
	"errors"
	"time"

	"skinscan/internal/model"
)

// Package repository contains data access contracts for profiles and scans.
// Implementations live in subpackages (e.g., kvstore) inside this directory.

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// ProfileRepository persists Profile records. No business logic here.
type ProfileRepository interface {
	// Create stores a new profile. It fails with ErrAlreadyExists instead of
	// overwriting an existing one.
	Create(ctx context.Context, p *model.Profile) error

	// Get returns the profile for id or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Profile, error)

	// Update overwrites the stored profile.
	Update(ctx context.Context, p *model.Profile) error
}

// ScanFilter narrows ListByOwner results. Zero values match everything.
type ScanFilter struct {
	// Query matches a case-insensitive substring of the disease name.
	Query string
	// Severity matches the severity tier case-insensitively.
	Severity string
}

// ScanRepository persists Scan records. Scans are never updated in place.
type ScanRepository interface {
	// NextID returns a fresh, unique scan id for ownerID.
	NextID(ownerID string, at time.Time) string

	// Create stores a new scan.
	Create(ctx context.Context, s *model.Scan) error

	// Get returns a scan by id or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Scan, error)

	// ListByOwner returns ownerID's scans newest first; ties are broken by id.
	ListByOwner(ctx context.Context, ownerID string, f ScanFilter) ([]model.Scan, error)

	// Delete removes a scan by id. It returns nil if the scan did not exist.
	Delete(ctx context.Context, id string) error
}
