package form

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/allezgo/internal/models"
	"github.com/desertthunder/allezgo/internal/repositories"
	"github.com/desertthunder/allezgo/internal/shared"
	tu "github.com/desertthunder/allezgo/internal/testing"
)

// countingStore wraps a [repositories.MemoryStore] and counts writes.
type countingStore struct {
	*repositories.MemoryStore
	sets    int
	removes int
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: repositories.NewMemoryStore()}
}

func (c *countingStore) Set(ctx context.Context, key, value string) error {
	c.sets++
	return c.MemoryStore.Set(ctx, key, value)
}

func (c *countingStore) Remove(ctx context.Context, key string) error {
	c.removes++
	return c.MemoryStore.Remove(ctx, key)
}

type memoryRecorder struct {
	mu   sync.Mutex
	runs []models.SyncRun
}

func (m *memoryRecorder) Record(_ context.Context, run models.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func newTestForm(t *testing.T, client *tu.MockSynchronizer, store repositories.Store) (*SyncForm, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	f := New(Opts{Client: client, Store: store, Logger: shared.NewLogger(&logs)})
	return f, &logs
}

func fillCredentials(t *testing.T, f *SyncForm) {
	t.Helper()
	ctx := context.Background()
	for _, err := range []error{
		f.SetPelotonEmail(ctx, "rider@example.com"),
		f.SetPelotonPassword(ctx, "peloton-secret"),
		f.SetGarminEmail(ctx, "rider@garmin.example.com"),
		f.SetGarminPassword(ctx, "garmin-secret"),
		f.SetGarminGearName(ctx, "Peloton Bike"),
	} {
		if err != nil {
			t.Fatalf("failed to fill credentials: %v", err)
		}
	}
}

func storedRecord(t *testing.T, store repositories.Store) (models.PersistedRecord, bool) {
	t.Helper()
	raw, err := store.Get(context.Background(), models.StorageKey)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.PersistedRecord{}, false
	}
	if err != nil {
		t.Fatalf("failed to read store: %v", err)
	}
	record, err := models.DecodePersistedRecord(raw)
	if err != nil {
		t.Fatalf("stored record is invalid: %v", err)
	}
	return record, true
}

func TestFormState(t *testing.T) {
	t.Run("Mutators Replace One Field", func(t *testing.T) {
		f, _ := newTestForm(t, &tu.MockSynchronizer{}, nil)
		ctx := context.Background()

		f.SetPelotonEmail(ctx, "a@example.com")
		f.SetGarminEmail(ctx, "b@example.com")
		f.SetPelotonEmail(ctx, "c@example.com")

		s := f.Snapshot()
		if s.Credentials.PelotonEmail != "c@example.com" {
			t.Errorf("expected latest peloton email, got %s", s.Credentials.PelotonEmail)
		}
		if s.Credentials.GarminEmail != "b@example.com" {
			t.Errorf("expected garmin email untouched, got %s", s.Credentials.GarminEmail)
		}
		if s.Options.TodayOnly || s.Options.RememberCredentials || s.InFlight {
			t.Errorf("expected options untouched, got %+v", s.Options)
		}
	})

	t.Run("IsSubmittable For Every Combination", func(t *testing.T) {
		setters := []func(*SyncForm, context.Context, string) error{
			(*SyncForm).SetPelotonEmail,
			(*SyncForm).SetPelotonPassword,
			(*SyncForm).SetGarminEmail,
			(*SyncForm).SetGarminPassword,
			(*SyncForm).SetGarminGearName,
		}

		for mask := 0; mask < 1<<len(setters); mask++ {
			f, _ := newTestForm(t, &tu.MockSynchronizer{}, nil)
			for i, set := range setters {
				if mask&(1<<i) != 0 {
					set(f, context.Background(), "value")
				}
			}

			want := mask == 1<<len(setters)-1
			if got := f.IsSubmittable(); got != want {
				t.Errorf("mask %05b: IsSubmittable() = %v, want %v", mask, got, want)
			}
		}
	})

	t.Run("IsSubmittable Has No Side Effects", func(t *testing.T) {
		store := newCountingStore()
		f, _ := newTestForm(t, &tu.MockSynchronizer{}, store)

		before := f.Snapshot()
		f.IsSubmittable()
		f.IsSubmittable()

		if f.Snapshot() != before {
			t.Error("IsSubmittable changed state")
		}
		if store.sets != 0 || store.removes != 0 {
			t.Errorf("IsSubmittable touched storage: %d sets, %d removes", store.sets, store.removes)
		}
	})

	t.Run("Toggles", func(t *testing.T) {
		f, _ := newTestForm(t, &tu.MockSynchronizer{}, nil)
		ctx := context.Background()

		f.ToggleTodayOnly(ctx)
		f.ToggleRememberCredentials(ctx)
		s := f.Snapshot()
		if !s.Options.TodayOnly || !s.Options.RememberCredentials {
			t.Errorf("expected both options on, got %+v", s.Options)
		}

		f.ToggleTodayOnly(ctx)
		if f.Snapshot().Options.TodayOnly {
			t.Error("expected today-only off after second toggle")
		}
	})
}

func TestCredentialStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Nothing Stored Without Opt In", func(t *testing.T) {
		store := newCountingStore()
		f, _ := newTestForm(t, &tu.MockSynchronizer{}, store)
		fillCredentials(t, f)

		if _, ok := storedRecord(t, store); ok {
			t.Error("expected no record without remember")
		}
		if store.sets != 0 {
			t.Errorf("expected no writes, got %d", store.sets)
		}
	})

	t.Run("Remember Writes Current State", func(t *testing.T) {
		store := newCountingStore()
		f, _ := newTestForm(t, &tu.MockSynchronizer{}, store)
		fillCredentials(t, f)

		if err := f.SetRememberCredentials(ctx, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		record, ok := storedRecord(t, store)
		if !ok {
			t.Fatal("expected a stored record")
		}
		if record.Credentials != f.Snapshot().Credentials {
			t.Errorf("stored credentials %+v do not match state", record.Credentials)
		}
		if !record.RememberMyCredentials || record.TodayOnly {
			t.Errorf("unexpected flags %+v", record)
		}
	})

	t.Run("Field Changes Update Record Exactly", func(t *testing.T) {
		store := newCountingStore()
		f, _ := newTestForm(t, &tu.MockSynchronizer{}, store)
		f.SetRememberCredentials(ctx, true)
		fillCredentials(t, f)

		f.SetGarminPassword(ctx, "rotated")
		f.SetTodayOnly(ctx, true)

		record, ok := storedRecord(t, store)
		if !ok {
			t.Fatal("expected a stored record")
		}
		want := models.NewPersistedRecord(f.Snapshot().Credentials, true)
		if record != want {
			t.Errorf("stored record %+v, want %+v", record, want)
		}
	})

	t.Run("Turning Remember Off Removes Record", func(t *testing.T) {
		store := newCountingStore()
		f, _ := newTestForm(t, &tu.MockSynchronizer{}, store)
		fillCredentials(t, f)
		f.SetRememberCredentials(ctx, true)

		if err := f.ToggleRememberCredentials(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, ok := storedRecord(t, store); ok {
			t.Error("expected record removed")
		}
		if store.Len() != 0 {
			t.Errorf("expected empty store, got %d keys", store.Len())
		}

		f.SetPelotonEmail(ctx, "other@example.com")
		if _, ok := storedRecord(t, store); ok {
			t.Error("edits after opting out must not write a record")
		}
	})

	t.Run("Unchanged Values Skip Writes", func(t *testing.T) {
		store := newCountingStore()
		f, _ := newTestForm(t, &tu.MockSynchronizer{}, store)
		f.SetRememberCredentials(ctx, true)
		f.SetPelotonEmail(ctx, "a@example.com")
		writes := store.sets

		f.SetPelotonEmail(ctx, "a@example.com")
		if store.sets != writes {
			t.Errorf("expected no additional write, got %d", store.sets-writes)
		}
	})

	t.Run("Storage Errors Surface", func(t *testing.T) {
		f, _ := newTestForm(t, &tu.MockSynchronizer{}, &tu.FailingStore{Err: errors.New("disk full")})

		err := f.SetRememberCredentials(ctx, true)
		if !errors.Is(err, shared.ErrStorage) {
			t.Errorf("expected ErrStorage, got %v", err)
		}
		if !f.Snapshot().Options.RememberCredentials {
			t.Error("state should still reflect the user's choice")
		}
	})

	t.Run("Load Reproduces Prior Values", func(t *testing.T) {
		store := repositories.NewMemoryStore()
		first, _ := newTestForm(t, &tu.MockSynchronizer{}, store)
		fillCredentials(t, first)
		first.SetTodayOnly(ctx, true)
		first.SetRememberCredentials(ctx, true)

		second, _ := newTestForm(t, &tu.MockSynchronizer{}, store)
		loaded, err := second.Load(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !loaded {
			t.Fatal("expected record to load")
		}

		got, want := second.Snapshot(), first.Snapshot()
		if got.Credentials != want.Credentials || got.Options != want.Options {
			t.Errorf("loaded state %+v, want %+v", got, want)
		}
	})

	t.Run("Load With Nothing Stored", func(t *testing.T) {
		f, _ := newTestForm(t, &tu.MockSynchronizer{}, repositories.NewMemoryStore())
		loaded, err := f.Load(ctx)
		if err != nil || loaded {
			t.Errorf("expected (false, nil), got (%v, %v)", loaded, err)
		}
	})

	t.Run("Load Discards Malformed Record", func(t *testing.T) {
		store := repositories.NewMemoryStore()
		store.Set(ctx, models.StorageKey, `{"pelotonEmail": 42, "rememberMyCredentials": true}`)

		f, logs := newTestForm(t, &tu.MockSynchronizer{}, store)
		loaded, err := f.Load(ctx)
		if err != nil {
			t.Fatalf("malformed record must not be an error, got %v", err)
		}
		if loaded {
			t.Error("expected malformed record to be ignored")
		}
		if f.Snapshot().Credentials != (models.Credentials{}) {
			t.Errorf("expected default state, got %+v", f.Snapshot().Credentials)
		}
		if _, err := store.Get(ctx, models.StorageKey); !errors.Is(err, repositories.ErrNotFound) {
			t.Errorf("expected malformed record removed, got %v", err)
		}
		if !strings.Contains(logs.String(), "discarding stored credentials") {
			t.Errorf("expected a warning in logs, got %q", logs.String())
		}
	})

	t.Run("Load Storage Failure", func(t *testing.T) {
		f, _ := newTestForm(t, &tu.MockSynchronizer{}, &tu.FailingStore{Err: errors.New("locked")})
		if _, err := f.Load(ctx); !errors.Is(err, shared.ErrStorage) {
			t.Errorf("expected ErrStorage, got %v", err)
		}
	})

	t.Run("Forget", func(t *testing.T) {
		store := repositories.NewMemoryStore()
		f, _ := newTestForm(t, &tu.MockSynchronizer{}, store)
		fillCredentials(t, f)
		f.SetRememberCredentials(ctx, true)

		if err := f.Forget(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.Len() != 0 {
			t.Error("expected record removed")
		}
		if f.Snapshot().Options.RememberCredentials {
			t.Error("expected remember off")
		}
	})
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("Sends Payload And Stores Result", func(t *testing.T) {
		client := &tu.MockSynchronizer{Response: models.NewResultResponse([]models.SyncResult{{
			ActivityDate: "2021-05-01", Title: "Ride", PelotonLink: "p", GarminLink: "g", WasCreated: true,
		}})}
		f, _ := newTestForm(t, client, nil)
		fillCredentials(t, f)

		resp, err := f.Submit(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(resp.Result) != 1 {
			t.Fatalf("expected one result, got %+v", resp)
		}

		reqs := client.Requests()
		if len(reqs) != 1 {
			t.Fatalf("expected one request, got %d", len(reqs))
		}
		if reqs[0].NumDaysToSync != 30 {
			t.Errorf("expected 30 days, got %d", reqs[0].NumDaysToSync)
		}
		if reqs[0].Credentials != f.Snapshot().Credentials {
			t.Errorf("payload credentials %+v do not match state", reqs[0].Credentials)
		}

		s := f.Snapshot()
		if s.InFlight {
			t.Error("expected idle after response")
		}
		if s.Result != resp || s.ResultDays != 30 || s.ResultSeq != 1 {
			t.Errorf("unexpected result state %+v", s)
		}
	})

	t.Run("Today Only Requests One Day", func(t *testing.T) {
		client := &tu.MockSynchronizer{Response: models.NewResultResponse(nil)}
		f, _ := newTestForm(t, client, nil)
		fillCredentials(t, f)
		f.SetTodayOnly(ctx, true)

		if _, err := f.Submit(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := client.Requests()[0].NumDaysToSync; got != 1 {
			t.Errorf("expected 1 day, got %d", got)
		}
		if f.Snapshot().ResultDays != 1 {
			t.Errorf("expected result window 1, got %d", f.Snapshot().ResultDays)
		}
	})

	t.Run("Result Arrival Does Not Write Storage", func(t *testing.T) {
		store := newCountingStore()
		client := &tu.MockSynchronizer{Response: models.NewResultResponse(nil)}
		f, _ := newTestForm(t, client, store)
		fillCredentials(t, f)
		f.SetRememberCredentials(ctx, true)
		writes := store.sets

		if _, err := f.Submit(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.sets != writes {
			t.Errorf("expected no writes on result, got %d", store.sets-writes)
		}
	})

	t.Run("Second Submit While In Flight Is Rejected", func(t *testing.T) {
		client := &tu.MockSynchronizer{
			Response: models.NewResultResponse(nil),
			Block:    make(chan struct{}),
			Started:  make(chan struct{}, 1),
		}
		f, _ := newTestForm(t, client, nil)
		fillCredentials(t, f)

		done, err := f.SubmitAsync(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		<-client.Started

		if !f.InFlight() {
			t.Error("expected in-flight state")
		}
		if f.Snapshot().CanSubmit() {
			t.Error("expected submit disabled while in flight")
		}

		if _, err := f.Submit(ctx); !errors.Is(err, ErrSubmitInFlight) {
			t.Errorf("expected ErrSubmitInFlight, got %v", err)
		}

		close(client.Block)
		out := <-done
		if out.Err != nil {
			t.Fatalf("unexpected error: %v", out.Err)
		}

		if n := len(client.Requests()); n != 1 {
			t.Errorf("expected exactly one request, got %d", n)
		}
		if f.InFlight() {
			t.Error("expected idle after response")
		}
	})

	t.Run("Transport Failure Returns To Idle With Visible Error", func(t *testing.T) {
		client := &tu.MockSynchronizer{Err: errors.New("connection refused")}
		f, _ := newTestForm(t, client, nil)
		fillCredentials(t, f)

		resp, err := f.Submit(ctx)
		if err == nil {
			t.Fatal("expected error")
		}

		s := f.Snapshot()
		if s.InFlight {
			t.Error("expected idle after failure")
		}
		if s.Result == nil || !strings.Contains(s.Result.Error, "connection refused") {
			t.Errorf("expected visible error, got %+v", s.Result)
		}
		if resp != s.Result {
			t.Error("expected returned response to be the stored error response")
		}
	})

	t.Run("Nil Response Is An Error", func(t *testing.T) {
		f, _ := newTestForm(t, &tu.MockSynchronizer{}, nil)
		fillCredentials(t, f)

		if _, err := f.Submit(ctx); !errors.Is(err, shared.ErrInvalidResponse) {
			t.Errorf("expected ErrInvalidResponse, got %v", err)
		}
		if !f.Snapshot().Result.HasError() {
			t.Error("expected visible error")
		}
	})

	t.Run("Without Client", func(t *testing.T) {
		f := New(Opts{Logger: shared.NewLogger(&bytes.Buffer{})})
		if _, err := f.Submit(ctx); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if f.InFlight() {
			t.Error("failed guard must not leave the form in flight")
		}
	})

	t.Run("Records Runs Without Credentials", func(t *testing.T) {
		recorder := &memoryRecorder{}
		client := &tu.MockSynchronizer{Response: &models.SyncResponse{Error: "bad credentials"}}
		f := New(Opts{Client: client, Recorder: recorder, Logger: shared.NewLogger(&bytes.Buffer{})})
		start := time.Date(2021, 5, 1, 9, 0, 0, 0, time.UTC)
		f.now = func() time.Time { return start }
		f.newID = func() string { return "run-1" }
		fillCredentials(t, f)

		if _, err := f.Submit(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(recorder.runs) != 1 {
			t.Fatalf("expected one run, got %d", len(recorder.runs))
		}
		run := recorder.runs[0]
		if run.ID != "run-1" || run.Error != "bad credentials" || run.NumDays != 30 {
			t.Errorf("unexpected run %+v", run)
		}
	})

	t.Run("Logs Carry Run ID And Window", func(t *testing.T) {
		f, logs := newTestForm(t, &tu.MockSynchronizer{Response: models.NewResultResponse(nil)}, nil)
		f.newID = func() string { return "run-7" }
		fillCredentials(t, f)
		f.SetTodayOnly(ctx, true)

		if _, err := f.Submit(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, line := range []string{"sync request submitted", "sync request finished"} {
			found := false
			for entry := range strings.SplitSeq(logs.String(), "\n") {
				if strings.Contains(entry, line) {
					found = true
					if !strings.Contains(entry, "run=run-7") || !strings.Contains(entry, "days=1") {
						t.Errorf("expected run attributes on %q, got %q", line, entry)
					}
				}
			}
			if !found {
				t.Errorf("missing log entry %q", line)
			}
		}
		if strings.Contains(logs.String(), "peloton-secret") {
			t.Error("password must never be logged")
		}
	})
}
