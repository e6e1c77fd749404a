// Package remotestore implements the remote data store the write queue writes
// to: a PostgREST (Supabase) HTTP endpoint or a direct SQL connection. Both
// return *domain.RemoteError tagged transient or permanent.
package remotestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/allisson/writequeue/internal/validation"
	"github.com/allisson/writequeue/internal/writequeue/domain"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// PostgRESTConfig holds PostgREST connection settings.
type PostgRESTConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// PostgRESTStore inserts rows through the PostgREST REST API.
type PostgRESTStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewPostgRESTStore creates a new PostgRESTStore.
func NewPostgRESTStore(cfg PostgRESTConfig) *PostgRESTStore {
	return &PostgRESTStore{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// postgrestError is the JSON error body returned by PostgREST.
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// Insert posts rows to /rest/v1/{table}.
func (s *PostgRESTStore) Insert(ctx context.Context, table string, rows []domain.Row) error {
	if !validation.IsIdentifier(table) {
		return domain.NewPermanentError(0, "", "invalid table name", domain.ErrInvalidTable)
	}

	body, err := json.Marshal(rows)
	if err != nil {
		return domain.NewPermanentError(0, "", "failed to encode rows", err)
	}

	endpoint := s.baseURL + "/rest/v1/" + url.PathEscape(table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.NewPermanentError(0, "", "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return domain.NewTransientError(0, "", "request failed", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	return responseError(resp)
}

func responseError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var pgErr postgrestError
	message := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &pgErr) == nil && pgErr.Message != "" {
		message = pgErr.Message
		if pgErr.Details != "" {
			message = fmt.Sprintf("%s (%s)", message, pgErr.Details)
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	if isTransientStatus(resp.StatusCode) {
		return domain.NewTransientError(resp.StatusCode, pgErr.Code, message, nil)
	}
	return domain.NewPermanentError(resp.StatusCode, pgErr.Code, message, nil)
}

func isTransientStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return true
	}
	return status >= http.StatusInternalServerError
}
