//go:build !integration

package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/severand/InteriorBot/internal/config"
	"github.com/severand/InteriorBot/internal/domain"
	"github.com/severand/InteriorBot/internal/infra/web"
	"github.com/severand/InteriorBot/internal/usecase"
)

type fakeStats struct{ stats usecase.BotStats }

func (f *fakeStats) Collect(ctx context.Context) (*usecase.BotStats, error) {
	cp := f.stats
	return &cp, nil
}

type fakeCredits struct {
	balances map[int64]int
}

func (f *fakeCredits) Allow(ctx context.Context, tgID int64, isAdmin bool) (bool, error) {
	return f.balances[tgID] > 0 || isAdmin, nil
}
func (f *fakeCredits) Spend(ctx context.Context, tgID int64) error  { return nil }
func (f *fakeCredits) Refund(ctx context.Context, tgID int64) error { return nil }
func (f *fakeCredits) Balance(ctx context.Context, tgID int64) (int, error) {
	b, ok := f.balances[tgID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return b, nil
}
func (f *fakeCredits) Grant(ctx context.Context, tgID int64, n int) error {
	if _, ok := f.balances[tgID]; !ok {
		return domain.ErrNotFound
	}
	f.balances[tgID] += n
	return nil
}
func (f *fakeCredits) Set(ctx context.Context, tgID int64, n int) error {
	if _, ok := f.balances[tgID]; !ok {
		return domain.ErrNotFound
	}
	f.balances[tgID] = n
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeCredits) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	credits := &fakeCredits{balances: map[int64]int{100: 5}}
	stats := &fakeStats{stats: usecase.BotStats{TotalUsers: 2, RevenueMonthRUB: 590}}
	srv := web.NewServer(stats, credits, config.AdminConfig{
		JWTSecret: "test-secret",
		Password:  "hunter2",
	}, "InteriorDesignBot", true, &logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, credits
}

func login(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	body := bytes.NewBufferString(`{"password":"hunter2"}`)
	resp, err := http.Post(ts.URL+"/api/v1/login", "application/json", body)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if out.Token == "" {
		t.Fatal("empty token")
	}
	return out.Token
}

func authedRequest(t *testing.T, method, url, token string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func TestServer_Auth(t *testing.T) {
	ts, _ := newTestServer(t)

	t.Run("stats without a token is rejected", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/stats")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/api/v1/login", "application/json",
			bytes.NewBufferString(`{"password":"wrong"}`))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
	})

	t.Run("garbage bearer token is rejected", func(t *testing.T) {
		resp := authedRequest(t, http.MethodGet, ts.URL+"/api/v1/stats", "not-a-jwt", nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})
}

func TestServer_Stats(t *testing.T) {
	ts, _ := newTestServer(t)
	token := login(t, ts)

	resp := authedRequest(t, http.MethodGet, ts.URL+"/api/v1/stats", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var stats usecase.BotStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalUsers != 2 || stats.RevenueMonthRUB != 590 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestServer_SetBalance(t *testing.T) {
	ts, credits := newTestServer(t)
	token := login(t, ts)

	t.Run("set overwrites", func(t *testing.T) {
		resp := authedRequest(t, http.MethodPost, ts.URL+"/api/v1/users/100/balance", token, []byte(`{"set":9}`))
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if credits.balances[100] != 9 {
			t.Errorf("expected balance 9, got %d", credits.balances[100])
		}
	})

	t.Run("grant adds", func(t *testing.T) {
		resp := authedRequest(t, http.MethodPost, ts.URL+"/api/v1/users/100/balance", token, []byte(`{"grant":3}`))
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if credits.balances[100] != 12 {
			t.Errorf("expected balance 12, got %d", credits.balances[100])
		}
	})

	t.Run("both or neither field is a bad request", func(t *testing.T) {
		for _, body := range []string{`{}`, `{"set":1,"grant":2}`} {
			resp := authedRequest(t, http.MethodPost, ts.URL+"/api/v1/users/100/balance", token, []byte(body))
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("body %s: expected 400, got %d", body, resp.StatusCode)
			}
		}
	})

	t.Run("unknown user is unprocessable", func(t *testing.T) {
		resp := authedRequest(t, http.MethodPost, ts.URL+"/api/v1/users/999/balance", token, []byte(`{"set":1}`))
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", resp.StatusCode)
		}
		// The body stays generic; the cause goes to the log only.
		body, _ := io.ReadAll(resp.Body)
		if got := strings.TrimSpace(string(body)); got != "Unprocessable Entity" {
			t.Errorf("expected a generic error body, got %q", got)
		}
	})
}

func TestServer_PublicEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("payment return page mentions the bot", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/payment/return")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if !bytes.Contains(b, []byte("InteriorDesignBot")) {
			t.Error("expected the bot username on the page")
		}
	})
}
