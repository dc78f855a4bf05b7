package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/shared"
)

func testCommitWriter(t *testing.T) (*responseWriterWithCommit, *httptest.ResponseRecorder) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sm := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	return &responseWriterWithCommit{
		ResponseWriter: rec,
		sess:           sess,
		manager:        sm,
		ctx:            context.Background(),
		req:            req,
	}, rec
}

func TestCommitWriterForwardsFlush(t *testing.T) {
	w, rec := testCommitWriter(t)

	var flusher http.Flusher = w
	flusher.Flush()

	require.True(t, rec.Flushed)
	// the session cookie travels with the first flushed headers
	require.NotEmpty(t, rec.Result().Cookies())
}

func TestCommitWriterHijackWithoutSupport(t *testing.T) {
	w, _ := testCommitWriter(t)

	var hijacker http.Hijacker = w
	_, _, err := hijacker.Hijack()
	require.Error(t, err)
}
