package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessage struct {
	settle

	acks  int
	nacks int
}

func (m *fakeMessage) Body() []byte         { return []byte("{}") }
func (m *fakeMessage) Key() []byte          { return nil }
func (m *fakeMessage) Headers() []Header    { return nil }
func (m *fakeMessage) ID() string           { return "1" }
func (m *fakeMessage) Topic() string        { return "topic" }
func (m *fakeMessage) Timestamp() time.Time { return time.Time{} }

func (m *fakeMessage) Ack(ctx context.Context) error {
	return m.once(ctx, func() error { m.acks++; return nil })
}

func (m *fakeMessage) Nack(ctx context.Context) error {
	return m.once(ctx, func() error { m.nacks++; return nil })
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		handler   Handler
		autoAck   bool
		wantAcks  int
		wantNacks int
		wantErr   bool
	}{
		{
			name:     "SuccessAcks",
			handler:  func(context.Context, Message) error { return nil },
			autoAck:  true,
			wantAcks: 1,
		},
		{
			name:      "ErrorNacks",
			handler:   func(context.Context, Message) error { return errors.New("boom") },
			autoAck:   true,
			wantNacks: 1,
		},
		{
			name:      "PanicNacks",
			handler:   func(context.Context, Message) error { panic("boom") },
			autoAck:   true,
			wantNacks: 1,
		},
		{
			name:    "ManualModeLeavesMessage",
			handler: func(context.Context, Message) error { return errors.New("boom") },
			wantErr: true,
		},
		{
			name: "HandlerAnsweredFirst",
			handler: func(ctx context.Context, msg Message) error {
				return msg.Nack(ctx)
			},
			autoAck:   true,
			wantNacks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := &fakeMessage{}
			err := dispatch(context.Background(), "fake", msg, tt.handler, tt.autoAck)

			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.wantAcks, msg.acks)
			assert.Equal(t, tt.wantNacks, msg.nacks)
		})
	}
}

func TestSettleOnce(t *testing.T) {
	t.Parallel()

	msg := &fakeMessage{}
	require.NoError(t, msg.Ack(context.Background()))
	require.NoError(t, msg.Nack(context.Background()))

	assert.Equal(t, 1, msg.acks)
	assert.Equal(t, 0, msg.nacks)
	assert.True(t, msg.hasResponded())
}

func TestSettleCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg := &fakeMessage{}
	assert.ErrorIs(t, msg.Ack(ctx), context.Canceled)
	assert.False(t, msg.hasResponded())
}

func TestHeaderValue(t *testing.T) {
	t.Parallel()

	headers := []Header{
		{Key: "X-Correlation-ID", Value: []byte("cid-1")},
		{Key: "x-correlation-id", Value: []byte("cid-2")},
	}

	assert.Equal(t, "cid-1", HeaderValue(headers, "x-correlation-id"))
	assert.Empty(t, HeaderValue(headers, "missing"))
}

func TestNewConsumeOptions(t *testing.T) {
	t.Parallel()

	co := newConsumeOptions(nil, WithConcurrency(-3))
	assert.Equal(t, 1, co.concurrency)
	assert.True(t, co.autoAck)

	co = newConsumeOptions(append(GroupOptions("verification"), WithAutoAck(false), WithMaxInFlight(8))...)
	assert.Equal(t, "verification", co.group)
	assert.Equal(t, "verification", co.channel)
	assert.Equal(t, "verification", co.queueGroup)
	assert.Equal(t, "verification", co.subscription)
	assert.False(t, co.autoAck)
	assert.Equal(t, 8, co.maxInFlight)
}

func TestNewFromDriverUnknown(t *testing.T) {
	t.Parallel()

	_, err := NewFromDriver(context.Background(), "carrier-pigeon", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(context.Background(), DriverKafka, FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)
}
