package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/buysell/internal/config"
)

func TestPresenceVerifier(t *testing.T) {
	v := New(&config.CaptchaConfig{Enabled: false})
	ok, err := v.Verify(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Verify(context.Background(), "  ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReCaptcha(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "s3cret", r.PostForm.Get("secret"))
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("response") == "good" {
			_, _ = w.Write([]byte(`{"success":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer srv.Close()

	v := New(&config.CaptchaConfig{Enabled: true, SecretKey: "s3cret", VerifyURL: srv.URL, Timeout: time.Second})

	ok, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Verify(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = v.Verify(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReCaptchaTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	v := New(&config.CaptchaConfig{Enabled: true, VerifyURL: srv.URL, Timeout: 20 * time.Millisecond})
	ok, err := v.Verify(context.Background(), "good")
	assert.Error(t, err)
	assert.False(t, ok)
}
