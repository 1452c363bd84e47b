package whttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendHTTPRequestRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	client, err := NewClient(Options{
		Retries:      3,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
		Logger:       logger,
	})
	require.NoError(t, err)

	res, err := SendHTTPRequest(context.Background(), &WHTTPReq{
		URL:     srv.URL,
		Headers: []WHTTPHeader{{Name: "X-Test", Value: "yes"}},
	}, client)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(res.Body))
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
	assert.NotEmpty(t, hook.AllEntries(), "retries are logged through logrus")
}

func TestNewClientRejectsBadProxy(t *testing.T) {
	_, err := NewClient(Options{Proxy: "://nope"})
	assert.Error(t, err)
}

func TestLeveledLoggerFields(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	leveledLogger{logger}.Warn("retrying", "url", "http://x", "attempt", 2, "dangling")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "retrying", entry.Message)
	assert.Equal(t, logrus.Fields{"url": "http://x", "attempt": 2}, entry.Data)
}
