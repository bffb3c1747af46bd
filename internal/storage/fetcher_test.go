package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("png-bytes"))
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte("late"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client(), 32, 50*time.Millisecond)
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		data, ct, err := f.Fetch(ctx, srv.URL+"/ok.png")
		require.NoError(t, err)
		assert.Equal(t, []byte("png-bytes"), data)
		assert.Equal(t, "image/png", ct)
	})

	t.Run("not found", func(t *testing.T) {
		_, _, err := f.Fetch(ctx, srv.URL+"/missing")
		assert.ErrorIs(t, err, ErrFetch)
		assert.Contains(t, err.Error(), "unexpected status 404")
	})

	t.Run("too large", func(t *testing.T) {
		_, _, err := f.Fetch(ctx, srv.URL+"/big")
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("timeout", func(t *testing.T) {
		_, _, err := f.Fetch(ctx, srv.URL+"/slow")
		assert.ErrorIs(t, err, ErrFetch)
	})

	t.Run("bad url", func(t *testing.T) {
		_, _, err := f.Fetch(ctx, "://nope")
		assert.ErrorIs(t, err, ErrFetch)
	})
}
