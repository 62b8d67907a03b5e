// Package client talks to a trivia-server over its HTTP API. The client keeps
// the table cookie the server hands out, so one Client sits at one table.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"

	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
	"github.com/LDs31100113/TriviaFX-UCAB/web"
)

type Client struct {
	scheme string
	addr   string
	http   *http.Client
}

func New(scheme, addr string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		scheme: scheme,
		addr:   addr,
		http:   &http.Client{Jar: jar},
	}, nil
}

func (c *Client) url(path string) string {
	return c.scheme + "://" + c.addr + path
}

func (c *Client) Profiles() ([]*trivia.PlayerProfile, error) {
	var resp []*trivia.PlayerProfile
	if err := c.get("/api/profiles", &resp); err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	return resp, nil
}

func (c *Client) NewProfile(p *trivia.PlayerProfile) error {
	if err := c.post("/api/profiles", p, nil); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// NewGame starts a match between the given roster aliases, in turn order, and
// sits the client at it.
func (c *Client) NewGame(aliases ...string) (*web.GameState, error) {
	body := struct {
		Aliases []string `json:"aliases"`
	}{aliases}

	var resp web.GameState
	if err := c.post("/api/game", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return &resp, nil
}

// Resume picks up the saved match and sits the client at it.
func (c *Client) Resume() (*web.GameState, error) {
	var resp web.GameState
	if err := c.post("/api/game/resume", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to resume game: %w", err)
	}
	return &resp, nil
}

func (c *Client) Game() (*web.GameState, error) {
	var resp web.GameState
	if err := c.get("/api/game", &resp); err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	return &resp, nil
}

func (c *Client) Roll(player string) (*web.MoveMsg, error) {
	body := struct {
		Player string `json:"player"`
	}{player}
	return c.move("roll", body)
}

func (c *Client) ChooseSpoke(player string, enter bool) (*web.MoveMsg, error) {
	body := struct {
		Player string `json:"player"`
		Enter  bool   `json:"enter_spoke"`
	}{player, enter}
	return c.move("spoke", body)
}

func (c *Client) Answer(player, answer string, elapsedMS int64) (*web.MoveMsg, error) {
	body := struct {
		Player    string `json:"player"`
		Answer    string `json:"answer"`
		ElapsedMS int64  `json:"elapsed_ms"`
	}{player, answer, elapsedMS}
	return c.move("answer", body)
}

func (c *Client) ChooseCategory(player string, cat trivia.Category) (*web.MoveMsg, error) {
	body := struct {
		Player   string          `json:"player"`
		Category trivia.Category `json:"category"`
	}{player, cat}
	return c.move("category", body)
}

func (c *Client) Surrender(player string) (*web.MoveMsg, error) {
	body := struct {
		Player string `json:"player"`
	}{player}
	return c.move("surrender", body)
}

func (c *Client) move(action string, body interface{}) (*web.MoveMsg, error) {
	var resp web.MoveMsg
	if err := c.post("/api/game/"+action, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", action, err)
	}
	return &resp, nil
}

func (c *Client) Stats() ([]*trivia.PlayerStats, error) {
	var resp []*trivia.PlayerStats
	if err := c.get("/api/stats", &resp); err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	return resp, nil
}

func (c *Client) get(path string, resp interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.url(path), nil)
	if err != nil {
		return fmt.Errorf("failed to form request: %w", err)
	}
	return c.do(req, resp)
}

func (c *Client) post(path string, body, resp interface{}) error {
	var in io.Reader
	if body != nil {
		in = toBody(body)
	}
	req, err := http.NewRequest(http.MethodPost, c.url(path), in)
	if err != nil {
		return fmt.Errorf("failed to form request: %w", err)
	}
	return c.do(req, resp)
}

func (c *Client) do(req *http.Request, resp interface{}) error {
	httpResp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return handleError(httpResp)
	}

	if resp != nil {
		if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}

	return nil
}

// HTTPError is returned for any response that isn't a 200.
type HTTPError struct {
	StatusCode int
	Body       string
	err        error
}

func (h *HTTPError) Error() string {
	if h.err != nil {
		return fmt.Sprintf("[%d] failed to handle error: %v", h.StatusCode, h.err)
	}
	return fmt.Sprintf("[%d] error from server: %s", h.StatusCode, h.Body)
}

func handleError(resp *http.Response) error {
	dat, err := io.ReadAll(resp.Body)
	if err != nil {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			err:        fmt.Errorf("failed to read error response body: %w", err),
		}
	}

	return &HTTPError{
		StatusCode: resp.StatusCode,
		Body:       string(bytes.TrimSpace(dat)),
	}
}

func toBody(req interface{}) io.Reader {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return &errReader{err: err}
	}
	return &buf
}

type errReader struct {
	err error
}

func (e *errReader) Read(_ []byte) (int, error) {
	return 0, e.err
}
