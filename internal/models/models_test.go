package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/allezgo/internal/shared"
)

func fullCredentials() Credentials {
	return Credentials{
		PelotonEmail:          "rider@example.com",
		PelotonPassword:       "peloton-secret",
		GarminEmail:           "rider@garmin.example.com",
		GarminPassword:        "garmin-secret",
		GarminPelotonGearName: "Peloton Bike+",
	}
}

func TestCredentials(t *testing.T) {
	t.Run("Complete For Every Combination", func(t *testing.T) {
		full := fullCredentials()
		for mask := 0; mask < 32; mask++ {
			c := Credentials{}
			if mask&1 != 0 {
				c.PelotonEmail = full.PelotonEmail
			}
			if mask&2 != 0 {
				c.PelotonPassword = full.PelotonPassword
			}
			if mask&4 != 0 {
				c.GarminEmail = full.GarminEmail
			}
			if mask&8 != 0 {
				c.GarminPassword = full.GarminPassword
			}
			if mask&16 != 0 {
				c.GarminPelotonGearName = full.GarminPelotonGearName
			}

			want := mask == 31
			if got := c.Complete(); got != want {
				t.Errorf("mask %05b: Complete() = %v, want %v", mask, got, want)
			}
			if got := len(c.Missing()) == 0; got != want {
				t.Errorf("mask %05b: Missing() = %v", mask, c.Missing())
			}
		}
	})

	t.Run("Missing Preserves Form Order", func(t *testing.T) {
		c := Credentials{PelotonPassword: "x", GarminPassword: "y"}
		got := strings.Join(c.Missing(), ",")
		if got != "pelotonEmail,garminEmail,garminPelotonGearName" {
			t.Errorf("unexpected missing fields %s", got)
		}
	})
}

func TestSyncRequest(t *testing.T) {
	t.Run("NumDaysToSync", func(t *testing.T) {
		if got := (SyncOptions{TodayOnly: false}).NumDaysToSync(); got != 30 {
			t.Errorf("expected 30 days, got %d", got)
		}
		if got := (SyncOptions{TodayOnly: true}).NumDaysToSync(); got != 1 {
			t.Errorf("expected 1 day, got %d", got)
		}
	})

	t.Run("Payload Field Names", func(t *testing.T) {
		req := NewSyncRequest(fullCredentials(), SyncOptions{TodayOnly: true})
		data, err := json.Marshal(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, key := range []string{"pelotonEmail", "pelotonPassword", "garminEmail", "garminPassword", "garminPelotonGearName", "numDaysToSync"} {
			if _, ok := decoded[key]; !ok {
				t.Errorf("payload missing %s: %s", key, data)
			}
		}
		if len(decoded) != 6 {
			t.Errorf("expected exactly 6 payload fields, got %d: %s", len(decoded), data)
		}
		if decoded["numDaysToSync"] != float64(1) {
			t.Errorf("expected numDaysToSync 1, got %v", decoded["numDaysToSync"])
		}
	})
}

func TestSyncResponse(t *testing.T) {
	t.Run("Empty Result Is Present", func(t *testing.T) {
		var resp SyncResponse
		if err := json.Unmarshal([]byte(`{"result": []}`), &resp); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !resp.HasResult() {
			t.Error("expected HasResult for empty list")
		}
		if len(resp.Result) != 0 {
			t.Errorf("expected no rows, got %d", len(resp.Result))
		}
		if resp.HasError() {
			t.Error("expected no error")
		}
	})

	t.Run("Absent And Null Result", func(t *testing.T) {
		for _, body := range []string{`{"error": "bad credentials"}`, `{"error": "bad credentials", "result": null}`} {
			var resp SyncResponse
			if err := json.Unmarshal([]byte(body), &resp); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.HasResult() {
				t.Errorf("%s: expected no result", body)
			}
			if resp.Error != "bad credentials" {
				t.Errorf("%s: expected error message, got %q", body, resp.Error)
			}
		}
	})

	t.Run("Both Fields Populated", func(t *testing.T) {
		var resp SyncResponse
		body := `{"error": "partial", "result": [{"activityDate": "2021-05-01", "title": "Ride", "wasCreated": true}]}`
		if err := json.Unmarshal([]byte(body), &resp); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !resp.HasError() || !resp.HasResult() {
			t.Errorf("expected both fields, got %+v", resp)
		}
		if resp.CreatedCount() != 1 {
			t.Errorf("expected 1 created, got %d", resp.CreatedCount())
		}
	})

	t.Run("Wrongly Typed Result", func(t *testing.T) {
		var resp SyncResponse
		if err := json.Unmarshal([]byte(`{"result": "nope"}`), &resp); err == nil {
			t.Error("expected error for string result")
		}
	})

	t.Run("Marshal Keeps Empty Result", func(t *testing.T) {
		data, err := json.Marshal(NewResultResponse(nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"result":[]}` {
			t.Errorf("unexpected encoding %s", data)
		}

		data, err = json.Marshal(NewErrorResponse(errors.New("boom")))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"error":"boom"}` {
			t.Errorf("unexpected encoding %s", data)
		}
	})
}

func TestPersistedRecord(t *testing.T) {
	t.Run("Encode And Decode", func(t *testing.T) {
		record := NewPersistedRecord(fullCredentials(), true)
		raw, err := record.Encode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, key := range []string{`"garminPelotonGearName"`, `"todayOnly":true`, `"rememberMyCredentials":true`} {
			if !strings.Contains(raw, key) {
				t.Errorf("encoded record missing %s: %s", key, raw)
			}
		}

		decoded, err := DecodePersistedRecord(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decoded != record {
			t.Errorf("decoded record %+v does not match %+v", decoded, record)
		}
	})

	t.Run("Rejects Malformed Records", func(t *testing.T) {
		tc := []struct {
			name string
			raw  string
		}{
			{name: "not json", raw: "peloton"},
			{name: "array", raw: `["a"]`},
			{name: "number for email", raw: `{"pelotonEmail": 5, "rememberMyCredentials": true}`},
			{name: "string for flag", raw: `{"todayOnly": "yes", "rememberMyCredentials": true}`},
			{name: "unknown field", raw: `{"requestInFlight": true, "rememberMyCredentials": true}`},
			{name: "remember false", raw: `{"pelotonEmail": "a", "rememberMyCredentials": false}`},
			{name: "trailing data", raw: `{"rememberMyCredentials": true} {}`},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				_, err := DecodePersistedRecord(tt.raw)
				if !errors.Is(err, shared.ErrInvalidRecord) {
					t.Errorf("expected ErrInvalidRecord, got %v", err)
				}
			})
		}
	})
}

func TestSyncRun(t *testing.T) {
	started := time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)

	resp := NewResultResponse([]SyncResult{{Title: "Ride", WasCreated: true}, {Title: "Climb"}})
	run := NewSyncRun("run-1", started, finished, 30, resp)

	if run.ResultCount != 2 || run.CreatedCount != 1 {
		t.Errorf("unexpected counts %+v", run)
	}
	if run.Duration() != 90*time.Second {
		t.Errorf("unexpected duration %v", run.Duration())
	}
	if err := run.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}

	bad := NewSyncRun("", started, finished, 30, nil)
	if err := bad.Validate(); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	backwards := NewSyncRun("run-2", finished, started, 1, nil)
	if err := backwards.Validate(); err == nil {
		t.Error("expected error for run finishing before start")
	}
}
