package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
	tea "github.com/charmbracelet/bubbletea"
)

// HTTPClient makes REST calls to the parking server.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:4000").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetState fetches /state.
func (c *HTTPClient) GetState() (*lot.Snapshot, error) {
	var s lot.Snapshot
	if err := c.get("/state", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetHealth fetches /health.
func (c *HTTPClient) GetHealth() (*Health, error) {
	var h Health
	if err := c.get("/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Reset sends POST /reset and returns the server's message.
func (c *HTTPClient) Reset() (string, error) {
	var out resetResponse
	if err := c.post("/reset", nil, &out); err != nil {
		return "", err
	}
	return out.Msg, nil
}

// FetchState returns a Bubble Tea command that loads /state.
func (c *HTTPClient) FetchState() tea.Cmd {
	return func() tea.Msg {
		s, err := c.GetState()
		if err != nil {
			return StateMsg{Err: err}
		}
		return StateMsg{Snapshot: *s}
	}
}

// FetchHealth returns a Bubble Tea command that loads /health.
func (c *HTTPClient) FetchHealth() tea.Cmd {
	return func() tea.Msg {
		h, err := c.GetHealth()
		if err != nil {
			return HealthMsg{Err: err}
		}
		return HealthMsg{Health: *h}
	}
}

// ResetLot returns a Bubble Tea command that resets the server state.
func (c *HTTPClient) ResetLot() tea.Cmd {
	return func() tea.Msg {
		msg, err := c.Reset()
		return ResetMsg{Msg: msg, Err: err}
	}
}

func (c *HTTPClient) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: %d %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) post(path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s: %d %s", path, resp.StatusCode, string(respBody))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
