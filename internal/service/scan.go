package service

import (
	"context"
	"errors"
	"fmt"

	"skinscan/internal/model"
	"skinscan/internal/repository"
	"skinscan/internal/taxonomy"
)

// ListScansInput narrows a history listing.
type ListScansInput struct {
	Query    string
	Severity string
}

// ScanService exposes an owner's scan history.
type ScanService interface {
	// List returns ownerID's scans newest first.
	List(ctx context.Context, callerID, ownerID string, in ListScansInput) ([]model.Scan, error)

	// Delete removes one of the caller's scans.
	Delete(ctx context.Context, callerID, scanID string) error
}

type scanService struct {
	scans repository.ScanRepository
}

// NewScanService constructs a new ScanService.
func NewScanService(scans repository.ScanRepository) ScanService {
	return &scanService{scans: scans}
}

func (s *scanService) List(ctx context.Context, callerID, ownerID string, in ListScansInput) ([]model.Scan, error) {
	if err := requireOwner(callerID, ownerID); err != nil {
		return nil, err
	}

	f := repository.ScanFilter{Query: in.Query}
	if in.Severity != "" {
		sev, ok := taxonomy.ParseSeverity(in.Severity)
		if !ok {
			return nil, fmt.Errorf("%w: unknown severity %q", ErrValidation, in.Severity)
		}
		f.Severity = string(sev)
	}

	scans, err := s.scans.ListByOwner(ctx, ownerID, f)
	if err != nil {
		return nil, err
	}
	if scans == nil {
		scans = []model.Scan{}
	}
	return scans, nil
}

func (s *scanService) Delete(ctx context.Context, callerID, scanID string) error {
	scan, err := s.scans.Get(ctx, scanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: scan not found", ErrNotFound)
		}
		return err
	}
	if err := requireOwner(callerID, scan.UserID); err != nil {
		return err
	}
	return s.scans.Delete(ctx, scanID)
}
