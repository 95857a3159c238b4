package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/allezgo/internal/shared"
)

const (
	// StorageKey is the fixed key the remembered credential record lives under.
	StorageKey = "peloton-to-garmin"

	// DaysToday and DaysDefault are the sync windows for the today-only option and the default.
	DaysToday   = 1
	DaysDefault = 30
)

// Credentials holds the five fields the remote API needs to act on the user's behalf.
type Credentials struct {
	PelotonEmail          string `json:"pelotonEmail"`
	PelotonPassword       string `json:"pelotonPassword"`
	GarminEmail           string `json:"garminEmail"`
	GarminPassword        string `json:"garminPassword"`
	GarminPelotonGearName string `json:"garminPelotonGearName"`
}

// Complete reports whether every credential field is non-empty.
func (c Credentials) Complete() bool {
	return c.PelotonEmail != "" &&
		c.PelotonPassword != "" &&
		c.GarminEmail != "" &&
		c.GarminPassword != "" &&
		c.GarminPelotonGearName != ""
}

// Missing returns the JSON names of the empty credential fields, in form order.
func (c Credentials) Missing() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"pelotonEmail", c.PelotonEmail},
		{"pelotonPassword", c.PelotonPassword},
		{"garminEmail", c.GarminEmail},
		{"garminPassword", c.GarminPassword},
		{"garminPelotonGearName", c.GarminPelotonGearName},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// SyncOptions are the user-chosen flags that affect the request payload and persistence.
type SyncOptions struct {
	TodayOnly           bool
	RememberCredentials bool
}

// NumDaysToSync returns 1 for today-only syncs and 30 otherwise.
func (o SyncOptions) NumDaysToSync() int {
	if o.TodayOnly {
		return DaysToday
	}
	return DaysDefault
}

// SyncRequest is the JSON body of the synchronization request.
type SyncRequest struct {
	Credentials
	NumDaysToSync int `json:"numDaysToSync"`
}

// NewSyncRequest builds the payload for the given credentials and options.
func NewSyncRequest(c Credentials, o SyncOptions) SyncRequest {
	return SyncRequest{Credentials: c, NumDaysToSync: o.NumDaysToSync()}
}

// SyncResult is one matched or created activity reported by the remote API.
type SyncResult struct {
	ActivityDate string `json:"activityDate"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	PelotonLink  string `json:"pelotonLink"`
	GarminLink   string `json:"garminLink"`
	WasCreated   bool   `json:"wasCreated"`
}

// SyncResponse is the outcome of one sync request.
//
// A nil Result means the field was absent; an empty, non-nil Result means no rides were found.
type SyncResponse struct {
	Error  string       `json:"error,omitempty"`
	Result []SyncResult `json:"result"`
}

// HasResult reports whether the response carried a result list, possibly empty.
func (r *SyncResponse) HasResult() bool {
	return r != nil && r.Result != nil
}

// HasError reports whether the response carried an error message.
func (r *SyncResponse) HasError() bool {
	return r != nil && r.Error != ""
}

// CreatedCount returns how many rows were newly created in Garmin Connect.
func (r *SyncResponse) CreatedCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, sr := range r.Result {
		if sr.WasCreated {
			n++
		}
	}
	return n
}

// MarshalJSON omits result only when it is nil, so an empty list survives a round trip.
func (r SyncResponse) MarshalJSON() ([]byte, error) {
	if r.Result == nil {
		return json.Marshal(struct {
			Error string `json:"error,omitempty"`
		}{Error: r.Error})
	}

	return json.Marshal(struct {
		Error  string       `json:"error,omitempty"`
		Result []SyncResult `json:"result"`
	}{Error: r.Error, Result: r.Result})
}

// UnmarshalJSON tracks presence of the result field so `{"result": []}` and `{}` stay distinguishable.
func (r *SyncResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Error  *string         `json:"error"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = SyncResponse{}
	if raw.Error != nil {
		r.Error = *raw.Error
	}
	if len(raw.Result) > 0 && !bytes.Equal(bytes.TrimSpace(raw.Result), []byte("null")) {
		results := []SyncResult{}
		if err := json.Unmarshal(raw.Result, &results); err != nil {
			return fmt.Errorf("result: %w", err)
		}
		r.Result = results
	}
	return nil
}

// NewErrorResponse wraps a client-side failure so it renders like a server-reported error.
func NewErrorResponse(err error) *SyncResponse {
	return &SyncResponse{Error: err.Error()}
}

// NewResultResponse builds a response holding results; a nil slice is treated as empty.
func NewResultResponse(results []SyncResult) *SyncResponse {
	if results == nil {
		results = []SyncResult{}
	}
	return &SyncResponse{Result: results}
}

// PersistedRecord is the remembered-credentials snapshot written to local storage.
type PersistedRecord struct {
	Credentials
	TodayOnly             bool `json:"todayOnly"`
	RememberMyCredentials bool `json:"rememberMyCredentials"`
}

// NewPersistedRecord snapshots credentials and the today-only flag with remember set.
func NewPersistedRecord(c Credentials, todayOnly bool) PersistedRecord {
	return PersistedRecord{Credentials: c, TodayOnly: todayOnly, RememberMyCredentials: true}
}

// Encode serializes the record as JSON.
func (p PersistedRecord) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}
	return string(data), nil
}

// Validate checks invariants of a loaded record.
func (p PersistedRecord) Validate() error {
	if !p.RememberMyCredentials {
		return fmt.Errorf("%w: record stored without rememberMyCredentials", shared.ErrInvalidRecord)
	}
	return nil
}

// DecodePersistedRecord parses and validates a stored record.
//
// Unknown fields and wrongly typed values are rejected; a record that fails is never partially applied.
func DecodePersistedRecord(raw string) (PersistedRecord, error) {
	var record PersistedRecord

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&record); err != nil {
		return PersistedRecord{}, fmt.Errorf("%w: %v", shared.ErrInvalidRecord, err)
	}
	if dec.More() {
		return PersistedRecord{}, fmt.Errorf("%w: trailing data after record", shared.ErrInvalidRecord)
	}

	if err := record.Validate(); err != nil {
		return PersistedRecord{}, err
	}

	return record, nil
}

// SyncRun is a history row for one submitted request. It never holds credentials.
type SyncRun struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	NumDays      int
	Error        string
	ResultCount  int
	CreatedCount int
}

// NewSyncRun summarizes a finished request.
func NewSyncRun(id string, started, finished time.Time, numDays int, resp *SyncResponse) SyncRun {
	run := SyncRun{ID: id, StartedAt: started, FinishedAt: finished, NumDays: numDays}
	if resp != nil {
		run.Error = resp.Error
		run.ResultCount = len(resp.Result)
		run.CreatedCount = resp.CreatedCount()
	}
	return run
}

// Duration returns how long the request was in flight.
func (r SyncRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Validate checks that the run can be stored.
func (r SyncRun) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: sync run id is required", shared.ErrInvalidInput)
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("%w: sync run start time is required", shared.ErrInvalidInput)
	}
	if r.FinishedAt.Before(r.StartedAt) {
		return fmt.Errorf("%w: sync run finished before it started", shared.ErrInvalidInput)
	}
	return nil
}
