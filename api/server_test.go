package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
	"github.com/Electry/panaxeo-coding-arena-2023/game/service"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	StatusFunc      func(ctx context.Context, token string) (*service.FireResponse, error)
	FireFunc        func(ctx context.Context, token string, x, y int) (*service.FireResponse, error)
	FireAvengerFunc func(ctx context.Context, token string, x, y int, avenger engine.Avenger) (*service.AvengerFireResponse, error)
	ResetFunc       func(ctx context.Context, token string, wipe bool) error
}

func (m *MockGameService) Status(ctx context.Context, token string) (*service.FireResponse, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, token)
	}
	return &service.FireResponse{Grid: strings.Repeat("*", 144), Result: true, MapID: 1, MapCount: 200}, nil
}

func (m *MockGameService) Fire(ctx context.Context, token string, x, y int) (*service.FireResponse, error) {
	if m.FireFunc != nil {
		return m.FireFunc(ctx, token, x, y)
	}
	return &service.FireResponse{Grid: strings.Repeat("*", 144), Cell: ".", Result: true, MapID: 1, MapCount: 200, MoveCount: 1}, nil
}

func (m *MockGameService) FireAvenger(ctx context.Context, token string, x, y int, avenger engine.Avenger) (*service.AvengerFireResponse, error) {
	if m.FireAvengerFunc != nil {
		return m.FireAvengerFunc(ctx, token, x, y, avenger)
	}
	return &service.AvengerFireResponse{}, nil
}

func (m *MockGameService) Reset(ctx context.Context, token string, wipe bool) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, token, wipe)
	}
	return nil
}

func doRequest(t *testing.T, server *Server, method, path string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if auth {
		req.Header.Set("Authorization", "Bearer secret")
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestMissingTokenIsForbidden(t *testing.T) {
	server := NewServer(&MockGameService{})

	rec := doRequest(t, server, http.MethodGet, "/fire", false)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body should be JSON: %v", err)
	}
	if body["error"] == "" {
		t.Error("error body should carry a message")
	}
}

func TestQueryTokenAccepted(t *testing.T) {
	called := false
	server := NewServer(&MockGameService{
		StatusFunc: func(ctx context.Context, token string) (*service.FireResponse, error) {
			called = true
			if token != "secret" {
				t.Errorf("expected token secret, got %q", token)
			}
			return &service.FireResponse{Grid: strings.Repeat("*", 144)}, nil
		},
	})

	rec := doRequest(t, server, http.MethodGet, "/fire?token=secret", false)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !called {
		t.Error("status handler should be reached")
	}
}

func TestNonGETRejected(t *testing.T) {
	server := NewServer(&MockGameService{})

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := doRequest(t, server, method, "/fire", true)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s /fire: expected 400, got %d", method, rec.Code)
		}
	}
}

func TestUnknownActionIs404(t *testing.T) {
	server := NewServer(&MockGameService{})

	rec := doRequest(t, server, http.MethodGet, "/leaderboard", true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

// The path takes row first; the engine takes x (column) first.
func TestFireRouteFlipsAxes(t *testing.T) {
	var gotX, gotY int
	server := NewServer(&MockGameService{
		FireFunc: func(ctx context.Context, token string, x, y int) (*service.FireResponse, error) {
			gotX, gotY = x, y
			return &service.FireResponse{Grid: strings.Repeat("*", 144)}, nil
		},
	})

	rec := doRequest(t, server, http.MethodGet, "/fire/3/7", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotX != 7 || gotY != 3 {
		t.Errorf("row 3 column 7 should map to x=7 y=3, got x=%d y=%d", gotX, gotY)
	}
}

func TestFireAvengerRoute(t *testing.T) {
	var gotAvenger engine.Avenger
	server := NewServer(&MockGameService{
		FireAvengerFunc: func(ctx context.Context, token string, x, y int, avenger engine.Avenger) (*service.AvengerFireResponse, error) {
			gotAvenger = avenger
			return &service.AvengerFireResponse{
				FireResponse:  service.FireResponse{Grid: strings.Repeat("*", 144)},
				AvengerResult: []service.AvengerResult{{MapPoint: service.MapPoint{X: 1, Y: 2}, Hit: true}},
			}, nil
		},
	})

	rec := doRequest(t, server, http.MethodGet, "/fire/0/0/avenger/hulk", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotAvenger != engine.AvengerHulk {
		t.Errorf("expected hulk, got %s", gotAvenger)
	}

	var body service.AvengerFireResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.AvengerResult) != 1 || !body.AvengerResult[0].Hit {
		t.Errorf("avenger results lost on the wire: %+v", body.AvengerResult)
	}
}

func TestInvalidAvengerName(t *testing.T) {
	server := NewServer(&MockGameService{})

	rec := doRequest(t, server, http.MethodGet, "/fire/0/0/avenger/loki", true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"out of bounds", fmt.Errorf("wrap: %w", engine.ErrOutOfBounds), http.StatusBadRequest},
		{"avenger unavailable", engine.ErrAvengerUnavailable, http.StatusBadRequest},
		{"attempt limit", service.ErrAttemptLimit, http.StatusBadRequest},
		{"internal", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewServer(&MockGameService{
				FireFunc: func(ctx context.Context, token string, x, y int) (*service.FireResponse, error) {
					return nil, tt.err
				},
			})
			rec := doRequest(t, server, http.MethodGet, "/fire/0/0", true)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestResetWipeFlag(t *testing.T) {
	var gotWipe bool
	server := NewServer(&MockGameService{
		ResetFunc: func(ctx context.Context, token string, wipe bool) error {
			gotWipe = wipe
			return nil
		},
	})

	if rec := doRequest(t, server, http.MethodGet, "/reset", true); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotWipe {
		t.Error("plain reset should not wipe")
	}

	if rec := doRequest(t, server, http.MethodGet, "/reset?wipe", true); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !gotWipe {
		t.Error("reset?wipe should wipe")
	}
}
