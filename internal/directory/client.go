// internal/directory/client.go
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"applynest/internal/utils"
)

// University is one entry from the public university directory.
type University struct {
	Name     string   `json:"name"`
	Country  string   `json:"country"`
	WebPages []string `json:"web_pages"`
}

// Client queries the public university directory. One Client is shared
// across the whole server; callers that issue successive searches and
// only want the latest result grab a Session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		sessions:   make(map[string]*Session),
	}
}

// Search looks universities up by name. A blank query returns an empty
// result without a request.
func (c *Client) Search(ctx context.Context, name string) ([]University, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []University{}, nil
	}

	endpoint := fmt.Sprintf("%s/search?name=%s", c.baseURL, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "failed to build directory request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrUpstream, "university directory unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, utils.NewAppError(utils.ErrUpstream,
			fmt.Sprintf("university directory returned status %d", resp.StatusCode), nil)
	}

	var results []University
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, utils.NewAppError(utils.ErrUpstream, "failed to decode directory response", err)
	}
	if results == nil {
		results = []University{}
	}
	return results, nil
}

// Session is one caller's search stream. Searches within a session
// carry a generation token so a slow response for an old query cannot
// clobber the results of a newer one. Separate sessions never
// interfere with each other.
type Session struct {
	client *Client
	gen    atomic.Uint64
}

// SessionFor returns the session for the given caller key, creating it
// on first use. Keys are typically user IDs.
func (c *Client) SessionFor(key string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[key]
	if !ok {
		s = &Session{client: c}
		c.sessions[key] = s
	}
	return s
}

// Search behaves like Client.Search, except a response superseded by a
// newer Search on the same session returns ErrStaleRequest.
func (s *Session) Search(ctx context.Context, name string) ([]University, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []University{}, nil
	}
	gen := s.gen.Add(1)

	results, err := s.client.Search(ctx, name)
	if err != nil {
		return nil, err
	}
	if s.gen.Load() != gen {
		s.client.logger.Debug("discarding superseded directory search", "query", name)
		return nil, utils.NewAppError(utils.ErrStaleRequest, "search superseded by a newer query", nil)
	}
	return results, nil
}
