package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/allezgo/internal/models"
	"github.com/desertthunder/allezgo/internal/repositories"
	"github.com/desertthunder/allezgo/internal/shared"
)

// persisted is the part of [State] mirrored into storage.
type persisted struct {
	credentials models.Credentials
	todayOnly   bool
	remember    bool
}

func persistedView(s State) persisted {
	return persisted{credentials: s.Credentials, todayOnly: s.Options.TodayOnly, remember: s.Options.RememberCredentials}
}

// persistLocked writes the record when remember is on and removes it otherwise. f.mu must be held.
//
// Passwords are written in clear text; opting in to remember credentials accepts that.
func (f *SyncForm) persistLocked(ctx context.Context) error {
	if !f.state.Options.RememberCredentials {
		if err := f.store.Remove(ctx, models.StorageKey); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrStorage, err)
		}
		return nil
	}

	raw, err := models.NewPersistedRecord(f.state.Credentials, f.state.Options.TodayOnly).Encode()
	if err != nil {
		return err
	}
	if err := f.store.Set(ctx, models.StorageKey, raw); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}
	return nil
}

// Load restores a remembered record into the form and reports whether one was applied.
//
// A record that fails validation is logged, removed from storage and ignored. Only storage failures are errors.
func (f *SyncForm) Load(ctx context.Context) (bool, error) {
	raw, err := f.store.Get(ctx, models.StorageKey)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}

	record, err := models.DecodePersistedRecord(raw)
	if err != nil {
		f.logger.Warn("discarding stored credentials", "key", models.StorageKey, "error", err)
		if rerr := f.store.Remove(ctx, models.StorageKey); rerr != nil {
			f.logger.Warn("failed to remove invalid record", "key", models.StorageKey, "error", rerr)
		}
		return false, nil
	}

	f.mu.Lock()
	f.state.Credentials = record.Credentials
	f.state.Options.TodayOnly = record.TodayOnly
	f.state.Options.RememberCredentials = record.RememberMyCredentials
	f.mu.Unlock()

	f.logger.Debug("restored remembered credentials", "key", models.StorageKey)
	return true, nil
}

// Forget turns remember-credentials off, which removes the stored record.
func (f *SyncForm) Forget(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state.Options.RememberCredentials = false
	return f.persistLocked(ctx)
}
