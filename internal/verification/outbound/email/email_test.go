package email

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/titipyuk/internal/pkg/cache"
	"github.com/shandysiswandi/titipyuk/internal/pkg/clock"
	"github.com/shandysiswandi/titipyuk/internal/pkg/instrument"
	"github.com/shandysiswandi/titipyuk/internal/pkg/mail"
	"github.com/shandysiswandi/titipyuk/internal/pkg/storage"
	"github.com/shandysiswandi/titipyuk/internal/verification/usecase"
)

type fakeMail struct {
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeMail) Close() error { return nil }

type fakeStorage struct {
	body  string
	err   error
	reads int
}

func (f *fakeStorage) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	f.reads++
	if f.err != nil {
		return nil, storage.ObjectInfo{}, f.err
	}
	return io.NopCloser(bytes.NewBufferString(f.body)), storage.ObjectInfo{Bucket: bucket, Key: key}, nil
}

func (f *fakeStorage) StatObject(_ context.Context, bucket, key string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{Bucket: bucket, Key: key}, f.err
}

func (f *fakeStorage) Close() error { return nil }

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func codeMail() usecase.CodeMail {
	return usecase.CodeMail{Email: "a@x.com", Code: "042917", ExpiresAt: now.Add(10 * time.Minute), TTL: 10 * time.Minute}
}

func TestSendCode_NoTransport(t *testing.T) {
	m := New(nil, nil, cache.NewMemory(), clock.Fixed(now), Config{}, instrument.NewNoop())

	err := m.SendCode(context.Background(), codeMail())
	assert.ErrorIs(t, err, mail.ErrNotConfigured)
}

func TestSendCode_EmbeddedTemplate(t *testing.T) {
	client := &fakeMail{}
	m := New(client, nil, cache.NewMemory(), clock.Fixed(now), Config{From: "no-reply@titipyuk.id"}, instrument.NewNoop())

	require.NoError(t, m.SendCode(context.Background(), codeMail()))
	require.Len(t, client.sent, 1)

	msg := client.sent[0]
	assert.Equal(t, []string{"a@x.com"}, msg.To)
	assert.Equal(t, "no-reply@titipyuk.id", msg.From)
	assert.Equal(t, "Kode Verifikasi TitipYuk", msg.Subject)
	assert.Equal(t, "Kode verifikasi kamu: 042917 (berlaku 10 menit)", msg.TextBody)
	assert.Contains(t, msg.HTMLBody, "042917")
	assert.Contains(t, msg.HTMLBody, "10 menit")
}

func TestSendCode_StoredTemplateIsCached(t *testing.T) {
	client := &fakeMail{}
	store := &fakeStorage{body: "<p>kode {{.Code}}</p>"}
	cfg := Config{Bucket: "templates", ObjectKey: "verification.html", CacheTTL: time.Minute}
	m := New(client, store, cache.NewMemory(), clock.Fixed(now), cfg, instrument.NewNoop())

	require.NoError(t, m.SendCode(context.Background(), codeMail()))
	require.NoError(t, m.SendCode(context.Background(), codeMail()))

	assert.Equal(t, 1, store.reads)
	assert.Equal(t, "<p>kode 042917</p>", client.sent[1].HTMLBody)
}

func TestSendCode_MissingObjectFallsBack(t *testing.T) {
	client := &fakeMail{}
	store := &fakeStorage{err: storage.ErrObjectNotFound}
	cfg := Config{Bucket: "templates", ObjectKey: "verification.html", CacheTTL: time.Minute}
	m := New(client, store, cache.NewMemory(), clock.Fixed(now), cfg, instrument.NewNoop())

	require.NoError(t, m.SendCode(context.Background(), codeMail()))
	assert.Contains(t, client.sent[0].HTMLBody, "Kode verifikasi TitipYuk kamu")
}

func TestSendCode_TransportError(t *testing.T) {
	client := &fakeMail{err: errors.New("boom")}
	m := New(client, nil, cache.NewMemory(), clock.Fixed(now), Config{}, instrument.NewNoop())

	assert.EqualError(t, m.SendCode(context.Background(), codeMail()), "boom")
}
