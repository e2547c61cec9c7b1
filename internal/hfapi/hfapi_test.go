package hfapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/org/model", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hi", body["inputs"])
		_, _ = w.Write([]byte(`[1]`))
	}))
	defer srv.Close()

	c := New(Config{URL: ModelURL(srv.URL+"/", "org/model"), APIKey: "hf-key"})
	out, err := c.Post(context.Background(), map[string]string{"inputs": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(out))
}

func TestPost_Retries(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
		wantErr   bool
	}{
		{name: "unavailable then ok", status: http.StatusServiceUnavailable, wantCalls: 2},
		{name: "rate limited then ok", status: http.StatusTooManyRequests, wantCalls: 2},
		{name: "bad request is final", status: http.StatusBadRequest, wantCalls: 1, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					w.Header().Set("Retry-After", "0")
					w.WriteHeader(tc.status)
					return
				}
				_, _ = w.Write([]byte(`{}`))
			}))
			defer srv.Close()

			c := New(Config{URL: srv.URL, BaseDelay: time.Millisecond})
			_, err := c.Post(context.Background(), struct{}{})
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantCalls, calls.Load())
		})
	}
}

func TestPost_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, MaxRetries: 2, BaseDelay: time.Millisecond})
	_, err := c.Post(context.Background(), struct{}{})
	assert.ErrorContains(t, err, "502")
	assert.Equal(t, int32(3), calls.Load())
}

func TestPost_CancelledWhileWaiting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New(Config{URL: srv.URL}).Post(ctx, struct{}{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{value: "", want: 0},
		{value: "3", want: 3 * time.Second},
		{value: "-1", want: 0},
		{value: "Wed, 21 Oct 2015 07:28:00 GMT", want: 0},
	}
	for _, tc := range tests {
		h := http.Header{}
		h.Set("Retry-After", tc.value)
		assert.Equal(t, tc.want, retryAfter(h), tc.value)
	}
}

func TestRetryDelay(t *testing.T) {
	c := New(Config{URL: "http://x", BaseDelay: time.Second})
	assert.Equal(t, time.Second, c.retryDelay(0))
	assert.Equal(t, 4*time.Second, c.retryDelay(2))
	assert.Equal(t, maxDelay, c.retryDelay(10))
	assert.Equal(t, maxDelay, c.retryDelay(70))
}
