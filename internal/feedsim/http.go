package feedsim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/pulse/internal/domain/types"
)

// Submission outcomes.
const (
	resultAccepted  = "accepted"
	resultDuplicate = "duplicate"
	resultFailed    = "failed"
)

// ErrUnexpectedStatus is returned for HTTP responses the client does not expect.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Client talks to the match service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Health checks that the service answers GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: healthz returned %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

// CreateMatch creates a match between two teams.
func (c *Client) CreateMatch(ctx context.Context, home, away types.TeamInput) (types.MatchView, error) {
	body := map[string]types.TeamInput{"home": home, "away": away}
	var view types.MatchView
	if err := c.call(ctx, http.MethodPost, "/matches", body, http.StatusCreated, &view); err != nil {
		return types.MatchView{}, err
	}
	return view, nil
}

// Match fetches one match.
func (c *Client) Match(ctx context.Context, id string) (types.MatchView, error) {
	var view types.MatchView
	if err := c.call(ctx, http.MethodGet, "/matches/"+id, nil, http.StatusOK, &view); err != nil {
		return types.MatchView{}, err
	}
	return view, nil
}

// PostUpdate submits a feed update and reports whether it was accepted or
// recognised as a duplicate.
func (c *Client) PostUpdate(ctx context.Context, id string, u Update) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/matches/"+id+"/feed", u)
	if err != nil {
		return resultFailed, err
	}
	defer resp.Body.Close()

	var ack Ack
	switch resp.StatusCode {
	case http.StatusAccepted:
		_ = json.NewDecoder(resp.Body).Decode(&ack)
		return resultAccepted, nil
	case http.StatusOK:
		_ = json.NewDecoder(resp.Body).Decode(&ack)
		return resultDuplicate, nil
	default:
		return resultFailed, responseError(resp)
	}
}

func (c *Client) call(ctx context.Context, method, path string, body any, want int, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		return responseError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func responseError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
}
