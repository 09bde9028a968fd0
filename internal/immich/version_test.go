package immich

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/server/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]int{"major": 1, "minor": 132, "patch": 3})
	})
	client := newTestClient(t, mux)

	assert.True(t, client.SupportsVisibility())
	v, err := client.CheckVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.132.3", v.String())
	assert.False(t, client.SupportsVisibility())
	assert.True(t, client.SupportsOfflineSearch())
}

func TestCheckVersionLegacyEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/server-info/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]int{"major": 1, "minor": 110, "patch": 0})
	})
	client := newTestClient(t, mux)

	v, err := client.CheckVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.110.0", v.String())
	assert.False(t, client.SupportsOfflineSearch())
}

func TestCheckVersionTooOld(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/server/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]int{"major": 1, "minor": 105, "patch": 1})
	})
	client := newTestClient(t, mux)

	_, err := client.CheckVersion(context.Background())
	assert.ErrorContains(t, err, "not supported")
}

func TestCheckVersionUnauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/server/version", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	client := newTestClient(t, mux)

	_, err := client.CheckVersion(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
}
