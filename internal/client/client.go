package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/justsurfingit/interview-scheduler/internal/calendar"
	"github.com/justsurfingit/interview-scheduler/internal/models"
)

var (
	// ErrSessionInvalidated is returned for every call made after, or rejected
	// with, a 401/403.
	ErrSessionInvalidated = errors.New("session invalidated")
	ErrNotAllowed         = errors.New("operation not available for this role")
)

// APIError is a non-auth failure reported by the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	log     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client for the API rooted at baseURL (".../api/v1").
func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		session: session,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session {
	return c.session
}

// Interviews fetches the signed-in user's interviews as flat records.
func (c *Client) Interviews(ctx context.Context) ([]calendar.Record, error) {
	var out struct {
		Interviews []calendar.Record `json:"interviews"`
	}
	path := "/" + models.RouteSegment(c.session.Role()) + "/interviews"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Interviews, nil
}

// Month asks the server to build the month view. month is "YYYY-MM" or empty.
func (c *Client) Month(ctx context.Context, month, tz string, f calendar.Filter) (*calendar.MonthView, error) {
	q := url.Values{}
	for k, v := range map[string]string{"month": month, "tz": tz, "search": f.Search, "status": f.Status, "type": f.Type} {
		if v != "" {
			q.Set(k, v)
		}
	}
	path := "/" + models.RouteSegment(c.session.Role()) + "/calendar"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var view calendar.MonthView
	if err := c.do(ctx, http.MethodGet, path, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// UpdateStatus answers an invitation. Only job seekers may call it.
func (c *Client) UpdateStatus(ctx context.Context, id int64, status models.InterviewStatus, notes *string) (*calendar.Record, error) {
	if _, ok := c.session.Role().(models.JobSeeker); !ok {
		return nil, ErrNotAllowed
	}
	body := map[string]interface{}{"status": status}
	if notes != nil {
		body["notes"] = *notes
	}
	var rec calendar.Record
	path := "/jobseeker/interviews/" + strconv.FormatInt(id, 10) + "/status"
	if err := c.do(ctx, http.MethodPut, path, body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// do attaches the bearer token, decodes the envelope and turns 401/403 into a
// session invalidation.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	token, ok := c.session.Token()
	if !ok {
		return ErrSessionInvalidated
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		reason := http.StatusText(resp.StatusCode)
		if decodeErr == nil && env.Error != nil {
			reason = env.Error.Message
		}
		c.log.Warn("session invalidated", zap.Int("status", resp.StatusCode), zap.String("reason", reason))
		c.session.Invalidate(InvalidatedEvent{Status: resp.StatusCode, Reason: reason})
		return fmt.Errorf("%w: %s", ErrSessionInvalidated, reason)
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Code: "HTTP_ERROR", Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil && env.Error != nil {
			apiErr.Code, apiErr.Message = env.Error.Code, env.Error.Message
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
