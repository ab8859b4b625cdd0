package twitch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	logx "livenotify/pkg/logx"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		ClientID:     "cid",
		ClientSecret: "supersecretvalue",
		BaseURL:      srv.URL,
		AuthURL:      srv.URL + "/oauth2/token",
	}, logx.Nop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, srv
}

func TestStreamOnlineOffline(t *testing.T) {
	var authCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		authCalls.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("auth method: %s", r.Method)
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("bad auth form: %v", r.PostForm)
		}
		fmt.Fprint(w, `{"access_token":"tok123","expires_in":3600}`)
	})
	online := true
	mux.HandleFunc("/streams", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("authorization header: %q", got)
		}
		if got := r.Header.Get("Client-ID"); got != "cid" {
			t.Errorf("client-id header: %q", got)
		}
		if r.URL.Query().Get("user_login") != "somechannel" {
			t.Errorf("user_login: %q", r.URL.Query().Get("user_login"))
		}
		if !online {
			fmt.Fprint(w, `{"data":[]}`)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":"1","user_login":"somechannel","user_name":"SomeChannel",
			"game_name":"Tetris","title":"blocks","viewer_count":42,
			"started_at":"2026-03-01T18:00:00Z",
			"thumbnail_url":"https://cdn.example/{width}x{height}.jpg","language":"en"}]}`)
	})

	c, _ := newTestClient(t, mux)

	info, err := c.Stream(context.Background(), "somechannel")
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if info == nil || info.GameName != "Tetris" || info.ViewerCount != 42 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.URL() != "https://twitch.tv/somechannel" {
		t.Fatalf("url: %s", info.URL())
	}
	if got := info.Started(); !got.Equal(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("started: %v", got)
	}
	thumb := info.Thumbnail(1280, 720, time.Unix(99, 0))
	if thumb != "https://cdn.example/1280x720.jpg?t=99" {
		t.Fatalf("thumbnail: %s", thumb)
	}

	// Offline: nil info, nil error.
	online = false
	info, err = c.Stream(context.Background(), "somechannel")
	if err != nil {
		t.Fatalf("offline stream: %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil info when offline, got %+v", info)
	}

	// Token cached across calls.
	if n := authCalls.Load(); n != 1 {
		t.Fatalf("expected 1 auth call, got %d", n)
	}
}

func TestUnauthorizedInvalidatesToken(t *testing.T) {
	var authCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		authCalls.Add(1)
		fmt.Fprintf(w, `{"access_token":"tok%d","expires_in":3600}`, authCalls.Load())
	})
	mux.HandleFunc("/streams", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer tok1" {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"data":[]}`)
	})

	c, _ := newTestClient(t, mux)

	if _, err := c.Stream(context.Background(), "ch"); err == nil {
		t.Fatal("expected error on 401")
	}
	// The next call must re-authenticate and succeed.
	if _, err := c.Stream(context.Background(), "ch"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if n := authCalls.Load(); n != 2 {
		t.Fatalf("expected re-auth after 401, auth calls = %d", n)
	}
}

func TestRedactSecret(t *testing.T) {
	if got := redactSecret("supersecretvalue"); got != "supe...alue" {
		t.Fatalf("redact long: %q", got)
	}
	if got := redactSecret("short"); got != "****" {
		t.Fatalf("redact short: %q", got)
	}
}
