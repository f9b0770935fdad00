package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserInfoCachesLookups(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		json.NewEncoder(w).Encode(UserInfo{Email: "ana@club.test", FirstName: "Ana", LastName: "Silva"})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second, CacheTTL: time.Minute})
	userID := uuid.New()

	info, err := c.GetUserInfo(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "ana@club.test", info.Email)

	// The second lookup is served from cache.
	_, err = c.GetUserInfo(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))

	// A different user is a fresh lookup.
	_, err = c.GetUserInfo(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))
}

func TestGetUserInfoNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second})
	_, err := c.GetUserInfo(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGetUserInfoServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second})
	_, err := c.GetUserInfo(context.Background(), uuid.New())
	require.Error(t, err)
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ana Silva", (&UserInfo{FirstName: "Ana", LastName: "Silva"}).FullName())
	assert.Equal(t, "Ana", (&UserInfo{FirstName: "Ana"}).FullName())
}
