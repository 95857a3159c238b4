// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/allezgo/internal/models"
)

// MockSynchronizer is a test double for [services.Synchronizer].
//
// Each call records the request and returns Response/Err. When Block is set, calls wait until it is closed
// (or the context ends) so tests can observe the in-flight state.
type MockSynchronizer struct {
	Response *models.SyncResponse
	Err      error
	Block    chan struct{}
	Started  chan struct{}

	mu       sync.Mutex
	requests []models.SyncRequest
}

func (m *MockSynchronizer) Synchronize(ctx context.Context, req models.SyncRequest) (*models.SyncResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Started != nil {
		m.Started <- struct{}{}
	}

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return m.Response, m.Err
}

func (m *MockSynchronizer) Name() string { return "mock" }

// Requests returns a copy of every request received so far.
func (m *MockSynchronizer) Requests() []models.SyncRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SyncRequest(nil), m.requests...)
}

// FailingStore is a store double whose operations all fail with Err.
type FailingStore struct {
	Err error
}

func (f *FailingStore) Get(context.Context, string) (string, error) { return "", f.Err }
func (f *FailingStore) Set(context.Context, string, string) error   { return f.Err }
func (f *FailingStore) Remove(context.Context, string) error        { return f.Err }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
