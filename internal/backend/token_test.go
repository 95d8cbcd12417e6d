package backend_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/storefront-sync/internal/backend"
)

func TestOAuthToken_FetchesOnceAndReuses(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if err := r.ParseForm(); err != nil ||
			r.PostForm.Get("grant_type") != "client_credentials" || r.PostForm.Get("scope") != "orders.read" {
			http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"svc-token","token_type":"bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	ts := backend.NewOAuthToken(context.Background(), backend.OAuthConfig{
		TokenURL:     srv.URL,
		ClientID:     "storefront-sync",
		ClientSecret: "s3cret",
		Scopes:       []string{"orders.read"},
	}, srv.Client())

	for i := 0; i < 3; i++ {
		tok, err := ts.GetToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "svc-token", tok)
	}
	require.EqualValues(t, 1, hits.Load())
}

func TestOAuthToken_ServerRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid_client"}`)
	}))
	defer srv.Close()

	ts := backend.NewOAuthToken(context.Background(), backend.OAuthConfig{TokenURL: srv.URL, ClientID: "x"}, nil)
	_, err := ts.GetToken(context.Background())
	require.ErrorContains(t, err, "oauth token")
}
