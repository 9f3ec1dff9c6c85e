package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backend-gpslogger/internal/auth"
	"backend-gpslogger/internal/record"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "Secret123" {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(loginResponse{
			UserID: "uid-1",
			Tokens: auth.TokenResponse{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"},
		})
	})

	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		var req auth.LogoutRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.RefreshToken != "refresh" {
			http.Error(w, "refresh_token required", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/locations/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"key": "child-1"})
	})

	upgrader := websocket.Upgrader{}
	mux.HandleFunc("/stream/ws/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		snapshot := []record.Payload{
			{"latitude": 1.0, "longitude": 2.0, "timestamp": 10},
			{"latitude": 3.0, "longitude": 4.0},
		}
		payload, _ := json.Marshal(snapshot)
		_ = conn.WriteMessage(websocket.TextMessage, payload)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientSignInAndAppend(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)

	userID, err := c.SignIn(context.Background(), "user@example.com", "Secret123")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if userID != "uid-1" || c.UserID() != "uid-1" {
		t.Fatalf("unexpected user id %q", userID)
	}

	key, err := c.Append(context.Background(), userID, record.Record{Latitude: 1, Longitude: 2, CapturedAt: 3})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if key != "child-1" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestClientSignInRejected(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)

	_, err := c.SignIn(context.Background(), "user@example.com", "wrong")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "invalid credentials") {
		t.Fatalf("expected gateway message, got %v", err)
	}
	if c.UserID() != "" {
		t.Fatalf("no session on rejected sign-in")
	}
}

func TestClientAppendWithoutToken(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)

	if _, err := c.Append(context.Background(), "uid-1", record.Record{Latitude: 1, Longitude: 2, CapturedAt: 3}); err == nil {
		t.Fatalf("expected unauthorized")
	}
}

func TestClientSignOut(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)

	if _, err := c.SignIn(context.Background(), "user@example.com", "Secret123"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if c.UserID() != "" {
		t.Fatalf("expected cleared session")
	}

	// no refresh token left, nothing to revoke
	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("second sign out: %v", err)
	}
}

func TestClientSubscribe(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := c.Subscribe(ctx, "uid-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	select {
	case snap := <-sub.Snapshots:
		records := record.ParseChildren(snap)
		if len(records) != 1 {
			t.Fatalf("expected one valid record in snapshot, got %d", len(records))
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for snapshot")
	}

	cancel()
	for range sub.Snapshots {
	}
}

func TestClientSubscribeDialError(t *testing.T) {
	c := New("http://127.0.0.1:1")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := c.Subscribe(ctx, "uid-1"); err == nil {
		t.Fatalf("expected dial error")
	}
}

func TestHTTPToWS(t *testing.T) {
	if httpToWS("http://host") != "ws://host" {
		t.Fatalf("http conversion")
	}
	if httpToWS("https://host") != "wss://host" {
		t.Fatalf("https conversion")
	}
}
