package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulzo/prism-console/internal/core/domain"
)

func TestVerifyAssociation(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "gw-key", 5*time.Second)

	err := client.VerifyAssociation(context.Background(), "assoc-1")
	require.NoError(t, err)
	assert.Equal(t, "/admin/v1/associations/assoc-1/verify", gotPath)
	assert.Equal(t, "Bearer gw-key", gotAuth)
}

func TestVerifyAssociationFailureWrapsTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream rejected", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second)

	err := client.VerifyAssociation(context.Background(), "assoc-1")
	require.Error(t, err)

	var remote *domain.RemoteCallError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "assoc-1", remote.Target)
}

func TestVerifyModel(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second)

	err := client.VerifyModel(context.Background(), "p1", "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "/admin/v1/providers/p1/verify", gotPath)
}

func TestVerifyModelFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such provider", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second)

	err := client.VerifyModel(context.Background(), "p1", "gpt-4o")
	require.Error(t, err)

	var remote *domain.RemoteCallError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "p1/gpt-4o", remote.Target)
}

func TestListUpstreamModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/v1/providers/p1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"gpt-4o"},{"id":"gpt-4o-mini"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second)

	names, err := client.ListUpstreamModels(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, names)
}

func TestListUpstreamModelsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second)

	_, err := client.ListUpstreamModels(context.Background(), "p1")
	assert.Error(t, err)
}
