// Package form implements the sync form: credential and option state, the remembered-credentials store and the submit workflow.
//
// A [SyncForm] is shared by every surface (web, TUI, CLI). Its state is mutex-guarded so HTTP handlers may read
// and write it concurrently. Each mutator replaces exactly one field and persists the remembered record when that
// field is part of it; receiving a sync result never touches storage.
//
// The request lifecycle is Idle -> InFlight -> Idle-with-result. [SyncForm.Submit] rejects a second request
// with [ErrSubmitInFlight] while one is outstanding.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/allezgo/internal/models"
	"github.com/desertthunder/allezgo/internal/repositories"
	"github.com/desertthunder/allezgo/internal/services"
	"github.com/desertthunder/allezgo/internal/shared"
)

// ErrSubmitInFlight is returned when a submit is attempted while a request is outstanding.
var ErrSubmitInFlight = errors.New("sync request already in flight")

// Recorder stores a history row for each finished request.
type Recorder interface {
	Record(ctx context.Context, run models.SyncRun) error
}

// State is a point-in-time copy of the form.
type State struct {
	Credentials models.Credentials
	Options     models.SyncOptions
	InFlight    bool

	// Result is the last response, nil until the first request finishes.
	Result *models.SyncResponse
	// ResultDays is the sync window Result was requested for.
	ResultDays int
	// ResultSeq increments every time a result arrives.
	ResultSeq uint64
}

// IsSubmittable reports whether all five credential fields are filled in.
func (s State) IsSubmittable() bool {
	return s.Credentials.Complete()
}

// CanSubmit reports whether a surface should enable its submit action.
func (s State) CanSubmit() bool {
	return s.IsSubmittable() && !s.InFlight
}

// Outcome is delivered by [SyncForm.SubmitAsync] when the request finishes.
type Outcome struct {
	Response *models.SyncResponse
	Err      error
}

// SyncForm holds form state and coordinates storage and the sync client.
type SyncForm struct {
	mu    sync.Mutex
	state State

	client   services.Synchronizer
	store    repositories.Store
	recorder Recorder
	logger   *log.Logger
	now      func() time.Time
	newID    func() string
}

// Opts configures a [SyncForm]. Client and Store are required.
type Opts struct {
	Client   services.Synchronizer
	Store    repositories.Store
	Recorder Recorder
	Logger   *log.Logger
}

// New creates an empty form. Call [SyncForm.Load] to restore remembered credentials.
func New(opts Opts) *SyncForm {
	if opts.Store == nil {
		opts.Store = repositories.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &SyncForm{
		client:   opts.Client,
		store:    opts.Store,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		now:      time.Now,
		newID:    shared.GenerateID,
	}
}

// Snapshot returns a copy of the current state.
func (f *SyncForm) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// IsSubmittable reports whether all five credential fields are non-empty.
func (f *SyncForm) IsSubmittable() bool {
	return f.Snapshot().IsSubmittable()
}

// InFlight reports whether a sync request is outstanding.
func (f *SyncForm) InFlight() bool {
	return f.Snapshot().InFlight
}

func (f *SyncForm) SetPelotonEmail(ctx context.Context, v string) error {
	return f.update(ctx, func(s *State) { s.Credentials.PelotonEmail = v })
}

func (f *SyncForm) SetPelotonPassword(ctx context.Context, v string) error {
	return f.update(ctx, func(s *State) { s.Credentials.PelotonPassword = v })
}

func (f *SyncForm) SetGarminEmail(ctx context.Context, v string) error {
	return f.update(ctx, func(s *State) { s.Credentials.GarminEmail = v })
}

func (f *SyncForm) SetGarminPassword(ctx context.Context, v string) error {
	return f.update(ctx, func(s *State) { s.Credentials.GarminPassword = v })
}

// SetGarminGearName sets the "Brand & Model" of the Peloton bike's custom gear in Garmin Connect.
func (f *SyncForm) SetGarminGearName(ctx context.Context, v string) error {
	return f.update(ctx, func(s *State) { s.Credentials.GarminPelotonGearName = v })
}

func (f *SyncForm) SetTodayOnly(ctx context.Context, v bool) error {
	return f.update(ctx, func(s *State) { s.Options.TodayOnly = v })
}

func (f *SyncForm) ToggleTodayOnly(ctx context.Context) error {
	return f.update(ctx, func(s *State) { s.Options.TodayOnly = !s.Options.TodayOnly })
}

// SetRememberCredentials turns persistence on (writing the record now) or off (removing it).
func (f *SyncForm) SetRememberCredentials(ctx context.Context, v bool) error {
	return f.update(ctx, func(s *State) { s.Options.RememberCredentials = v })
}

func (f *SyncForm) ToggleRememberCredentials(ctx context.Context) error {
	return f.update(ctx, func(s *State) { s.Options.RememberCredentials = !s.Options.RememberCredentials })
}

// update applies fn and mirrors the remembered record when a persisted field changed.
func (f *SyncForm) update(ctx context.Context, fn func(*State)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	before := persistedView(f.state)
	fn(&f.state)
	if persistedView(f.state) == before {
		return nil
	}

	return f.persistLocked(ctx)
}

// Submit sends the current credentials and waits for the response.
//
// Transport failures are returned and also stored as a visible error response; the form always returns to idle.
func (f *SyncForm) Submit(ctx context.Context) (*models.SyncResponse, error) {
	req, err := f.begin()
	if err != nil {
		return nil, err
	}
	return f.run(ctx, req)
}

// SubmitAsync starts a request and returns immediately. The channel receives exactly one [Outcome].
func (f *SyncForm) SubmitAsync(ctx context.Context) (<-chan Outcome, error) {
	req, err := f.begin()
	if err != nil {
		return nil, err
	}

	done := make(chan Outcome, 1)
	go func() {
		defer close(done)
		resp, err := f.run(ctx, req)
		done <- Outcome{Response: resp, Err: err}
	}()

	return done, nil
}

// begin is the submit guard: it claims the in-flight slot and snapshots the payload.
func (f *SyncForm) begin() (models.SyncRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client == nil {
		return models.SyncRequest{}, fmt.Errorf("%w: sync client not configured", shared.ErrServiceUnavailable)
	}
	if f.state.InFlight {
		return models.SyncRequest{}, ErrSubmitInFlight
	}

	f.state.InFlight = true
	return models.NewSyncRequest(f.state.Credentials, f.state.Options), nil
}

func (f *SyncForm) run(ctx context.Context, req models.SyncRequest) (*models.SyncResponse, error) {
	id, ok := shared.GetRequestID(ctx)
	if !ok {
		id = f.newID()
	}
	logger := shared.WithLogger(f.logger, "run", id, "days", req.NumDaysToSync)
	started := f.now()

	logger.Info("sync request submitted", "service", f.client.Name())
	logger.Debug("sync accounts", "peloton", req.PelotonEmail, "garmin", req.GarminEmail)

	resp, err := f.client.Synchronize(shared.SetRequestID(ctx, id), req)
	if err == nil && resp == nil {
		err = fmt.Errorf("%w: empty response", shared.ErrInvalidResponse)
	}

	shown := resp
	if err != nil {
		logger.Error("sync request failed", "error", err)
		shown = models.NewErrorResponse(fmt.Errorf("sync request failed: %w", err))
	} else {
		logger.Info("sync request finished", "results", len(resp.Result), "created", resp.CreatedCount(), "error", resp.Error)
	}

	f.mu.Lock()
	f.state.InFlight = false
	f.state.Result = shown
	f.state.ResultDays = req.NumDaysToSync
	f.state.ResultSeq++
	f.mu.Unlock()

	if f.recorder != nil {
		run := models.NewSyncRun(id, started, f.now(), req.NumDaysToSync, shown)
		if rerr := f.recorder.Record(context.WithoutCancel(ctx), run); rerr != nil {
			logger.Warn("failed to record sync run", "error", rerr)
		}
	}

	if err != nil {
		return shown, err
	}
	return resp, nil
}
