package httphandler

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPServer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	s := NewHTTPServer("127.0.0.1:0", mux, WithHandlerTimeout(50*time.Millisecond))
	require.NoError(t, s.Listen())
	assert.NotEqual(t, "127.0.0.1:0", s.Addr())

	stopCtx, stop := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(stop)
	}()
	base := "http://" + s.Addr()

	t.Run("Serves", func(t *testing.T) {
		res, err := http.Get(base + "/healthz")
		require.NoError(t, err)
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "ok", string(body))
	})

	t.Run("SlowHandlerTimesOut", func(t *testing.T) {
		res, err := http.Get(base + "/slow")
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	})

	t.Run("CloseStopsRun", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
		defer cancel()
		s.Close(ctx)

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after Close")
		}
		assert.Error(t, stopCtx.Err())

		_, err := http.Get(base + "/healthz")
		assert.Error(t, err)
	})
}

func TestHTTPServerListenTaken(t *testing.T) {
	first := NewHTTPServer("127.0.0.1:0", http.NotFoundHandler())
	require.NoError(t, first.Listen())
	defer first.Close(t.Context())

	second := NewHTTPServer(first.Addr(), http.NotFoundHandler())
	assert.Error(t, second.Listen())

	stopCtx, stop := context.WithCancel(t.Context())
	second.Run(stop)
	assert.Error(t, stopCtx.Err())
}
