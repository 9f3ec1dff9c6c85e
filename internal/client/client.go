package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"backend-gpslogger/internal/auth"
	"backend-gpslogger/internal/record"
	"backend-gpslogger/internal/workflow"

	"github.com/gorilla/websocket"
)

// Client implements the auth and store gateways over the backend's HTTP
// and websocket surface. One client carries one signed-in identity.
type Client struct {
	baseURL string
	http    *http.Client

	mu     sync.Mutex
	userID string
	tokens auth.TokenResponse
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type loginResponse struct {
	UserID string             `json:"user_id"`
	Tokens auth.TokenResponse `json:"tokens"`
}

// SignIn exchanges credentials for a session and remembers the bearer
// token for subsequent calls.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(auth.LoginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	resp, err := c.post(ctx, "/auth/login", body, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.userID = lr.UserID
	c.tokens = lr.Tokens
	c.mu.Unlock()
	return lr.UserID, nil
}

// SignOut revokes the refresh token and forgets the local session. The
// local session is cleared even when the server call fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.tokens.RefreshToken
	c.userID = ""
	c.tokens = auth.TokenResponse{}
	c.mu.Unlock()

	if refresh == "" {
		return nil
	}

	body, err := json.Marshal(auth.LogoutRequest{RefreshToken: refresh})
	if err != nil {
		return err
	}
	resp, err := c.post(ctx, "/auth/logout", body, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return apiError(resp)
	}
	return nil
}

// Append writes one record to the user's partition and returns the child
// key the store generated.
func (c *Client) Append(ctx context.Context, _ string, rec record.Record) (string, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}

	resp, err := c.post(ctx, "/locations/", body, c.accessToken())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", apiError(resp)
	}

	var ar struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return "", err
	}
	return ar.Key, nil
}

// Subscribe opens a websocket to the user's partition and forwards every
// snapshot until ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context, userID string) (workflow.Subscription, error) {
	wsURL := httpToWS(c.baseURL) + "/stream/ws/" + userID
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return workflow.Subscription{}, err
	}
	if resp != nil {
		resp.Body.Close()
	}

	snapshots := make(chan []record.Payload, 4)
	errs := make(chan error, 1)

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	go func() {
		defer close(snapshots)
		defer close(errs)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- err
				}
				return
			}
			var children []record.Payload
			if err := json.Unmarshal(msg, &children); err != nil {
				continue
			}
			select {
			case snapshots <- children:
			case <-ctx.Done():
				return
			}
		}
	}()

	return workflow.Subscription{Snapshots: snapshots, Errs: errs}, nil
}

func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens.AccessToken
}

func (c *Client) post(ctx context.Context, path string, body []byte, bearer string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return c.http.Do(req)
}

func apiError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	text := strings.TrimSpace(string(msg))
	if text == "" {
		return errors.New(resp.Status)
	}
	return fmt.Errorf("%s: %s", resp.Status, text)
}

func httpToWS(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}
