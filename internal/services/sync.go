package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/allezgo/internal/models"
	"github.com/desertthunder/allezgo/internal/shared"
)

const (
	// DefaultEndpoint is the hosted synchronization API.
	DefaultEndpoint = "https://api.allezgo.io/api/synchronize/peloton-to-garmin"

	// RequestIDHeader carries the per-request ID so server logs can be correlated.
	RequestIDHeader = "X-Request-ID"

	// maxResponseBytes bounds the response body read into memory.
	maxResponseBytes = 8 << 20
)

// SyncService is the HTTP client for the remote synchronization endpoint.
type SyncService struct {
	endpoint   string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	newID      func() string
}

// SyncServiceOpts configures a [SyncService].
type SyncServiceOpts struct {
	Endpoint   string
	UserAgent  string
	Timeout    time.Duration // zero disables the per-request timeout
	HTTPClient *http.Client
}

// NewSyncService creates a new sync client, defaulting the endpoint and HTTP client.
func NewSyncService(opts SyncServiceOpts) *SyncService {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &SyncService{
		endpoint:   opts.Endpoint,
		userAgent:  opts.UserAgent,
		timeout:    opts.Timeout,
		httpClient: opts.HTTPClient,
		newID:      shared.GenerateID,
	}
}

// NewSyncServiceFromConfig creates a sync client from the [shared.SyncConfig] section.
func NewSyncServiceFromConfig(cfg shared.SyncConfig, client *http.Client) *SyncService {
	return NewSyncService(SyncServiceOpts{
		Endpoint:   cfg.Endpoint,
		UserAgent:  cfg.UserAgent,
		Timeout:    cfg.Timeout(),
		HTTPClient: client,
	})
}

func (s *SyncService) Name() string { return "allezgo" }

// Endpoint returns the URL requests are sent to.
func (s *SyncService) Endpoint() string { return s.endpoint }

// Synchronize PUTs the request as JSON and decodes the body as a [models.SyncResponse].
//
// Any body that decodes is the outcome, whatever the HTTP status; the remote API reports its own failures in the error field.
func (s *SyncService) Synchronize(ctx context.Context, req models.SyncRequest) (*models.SyncResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	requestID, ok := shared.GetRequestID(ctx)
	if !ok {
		requestID = s.newID()
	}
	httpReq.Header.Set(RequestIDHeader, requestID)
	if s.userAgent != "" {
		httpReq.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	var result models.SyncResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: status %d: %v", shared.ErrInvalidResponse, resp.StatusCode, err)
	}

	return &result, nil
}
