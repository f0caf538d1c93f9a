package solver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
	"github.com/Electry/panaxeo-coding-arena-2023/game/service"
)

// The client must send the bearer token and put the row before the
// column in the path.
func TestClientFirePathAndAuth(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(&service.FireResponse{
			Grid: strings.Repeat("*", 144),
			Cell: ".",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	resp, err := client.Fire(context.Background(), 7, 3) // x=7 column, y=3 row
	require.NoError(t, err)
	require.Equal(t, "/fire/3/7", gotPath)
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, ".", resp.Cell)
}

func TestClientFireAvengerPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(&service.AvengerFireResponse{
			FireResponse: service.FireResponse{Grid: strings.Repeat("*", 144)},
			AvengerResult: []service.AvengerResult{
				{MapPoint: service.MapPoint{X: 4, Y: 9}, Hit: true},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	resp, err := client.FireAvenger(context.Background(), 9, 4, engine.AvengerIronMan)
	require.NoError(t, err)
	require.Equal(t, "/fire/4/9/avenger/ironman", gotPath)
	require.Len(t, resp.AvengerResult, 1)
	require.True(t, resp.AvengerResult[0].Hit)
}

func TestClientSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "missing token"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.Status(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing token")
}

func TestClientResetWipe(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]bool{"reset": true})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	require.NoError(t, client.Reset(context.Background(), true))
	require.Equal(t, "wipe", gotQuery)
}
