package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailryRequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := NewMailry(MailryConfig{APIKey: "k"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewFromDriver("none", FactoryOptions{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewFromDriver("pigeon", FactoryOptions{})
	assert.Error(t, err)
}

func TestMailrySend(t *testing.T) {
	t.Parallel()

	var got mailryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, mailrySendPath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	m, err := NewMailry(MailryConfig{APIKey: "secret", APIBase: srv.URL + "/", SenderEmailID: "sender-1"})
	require.NoError(t, err)

	err = m.Send(context.Background(), Message{
		To:       []string{"a@x.com"},
		Subject:  "Kode Verifikasi TitipYuk",
		HTMLBody: "<p>Kode verifikasi kamu: <b>123456</b></p>",
	})
	require.NoError(t, err)

	assert.Equal(t, mailryRequest{
		EmailID:   "sender-1",
		To:        "a@x.com",
		Subject:   "Kode Verifikasi TitipYuk",
		HTMLBody:  "<p>Kode verifikasi kamu: <b>123456</b></p>",
		PlainBody: "Kode verifikasi kamu: 123456",
	}, got)
}

func TestMailryRetries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{name: "server error is retried", status: http.StatusBadGateway, wantCalls: 3},
		{name: "client error is not retried", status: http.StatusUnprocessableEntity, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				http.Error(w, "nope", tt.status)
			}))
			t.Cleanup(srv.Close)

			m, err := NewMailry(MailryConfig{APIKey: "k", APIBase: srv.URL, SenderEmailID: "s", MaxRetries: 2})
			require.NoError(t, err)

			err = m.Send(context.Background(), Message{To: []string{"a@x.com"}, TextBody: "hi"})

			var mErr *MailryError
			require.ErrorAs(t, err, &mErr)
			assert.Equal(t, tt.status, mErr.Status)
			assert.Equal(t, "nope", mErr.Body)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestMailryNoRecipients(t *testing.T) {
	t.Parallel()

	m, err := NewMailry(MailryConfig{APIKey: "k", SenderEmailID: "s"})
	require.NoError(t, err)
	assert.ErrorIs(t, m.Send(context.Background(), Message{}), ErrNoRecipients)
}
