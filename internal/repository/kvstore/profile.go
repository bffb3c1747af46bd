package kvstore

import (
	"context"
	"fmt"

	"skinscan/internal/kv"
	"skinscan/internal/model"
	"skinscan/internal/repository"
)

// ProfileStore is a kv.Store backed repository.ProfileRepository.
type ProfileStore struct {
	store kv.Store
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(store kv.Store) *ProfileStore {
	return &ProfileStore{store: store}
}

var _ repository.ProfileRepository = (*ProfileStore)(nil)

func (r *ProfileStore) Create(ctx context.Context, p *model.Profile) error {
	created, err := kv.SetJSONIfAbsent(ctx, r.store, profileKey(p.ID), p)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	if !created {
		return repository.ErrAlreadyExists
	}
	return nil
}

func (r *ProfileStore) Get(ctx context.Context, id string) (*model.Profile, error) {
	p, found, err := kv.GetJSON[model.Profile](ctx, r.store, profileKey(id))
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if !found {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *ProfileStore) Update(ctx context.Context, p *model.Profile) error {
	if err := kv.SetJSON(ctx, r.store, profileKey(p.ID), p); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}
