// Package idempotency deduplicates client retries carrying the same
// Idempotency-Key. The first request runs and its response is stored; a
// concurrent duplicate is rejected, a later duplicate gets the stored response.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrInProgress   = errors.New("idempotency: operation already in progress")
	ErrInvalidState = errors.New("idempotency: invalid stored state")
)

type State string

const (
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

const (
	defaultLockDuration = 30 * time.Second
	defaultResultTTL    = 10 * time.Minute
	keyPrefix           = "idempotency:"
)

type record struct {
	State    State           `json:"state"`
	Response json.RawMessage `json:"response,omitempty"`
}

// Result is what Exec hands back: the response bytes and whether they were replayed.
type Result struct {
	Response []byte
	Replayed bool
}

// Idempotency runs fn at most once per key within the result TTL.
type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) ([]byte, error), opts ...Option) (Result, error)
}

type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	resultTTL    time.Duration
}

// WithLockDuration bounds how long an in-progress marker survives a crashed worker.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithResultTTL sets how long a completed response is replayed.
func WithResultTTL(d time.Duration) Option {
	return func(o *execOptions) { o.resultTTL = d }
}

// StateTracker keeps idempotency records in redis.
type StateTracker struct {
	client redis.UniversalClient
}

func New(client redis.UniversalClient) *StateTracker {
	return &StateTracker{client: client}
}

func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) ([]byte, error), opts ...Option) (Result, error) {
	o := execOptions{lockDuration: defaultLockDuration, resultTTL: defaultResultTTL}
	for _, opt := range opts {
		opt(&o)
	}

	fk := keyPrefix + key

	inProgress, err := json.Marshal(record{State: StateInProgress})
	if err != nil {
		return Result{}, err
	}

	acquired, err := s.client.SetNX(ctx, fk, inProgress, o.lockDuration).Result()
	if err != nil {
		return Result{}, err
	}

	if !acquired {
		return s.existing(ctx, fk)
	}

	resp, err := fn(ctx)
	if err != nil {
		// Failed attempts are not remembered so the client can retry with the same key.
		if delErr := s.client.Del(context.WithoutCancel(ctx), fk).Err(); delErr != nil {
			return Result{}, errors.Join(err, delErr)
		}
		return Result{}, err
	}

	done, err := json.Marshal(record{State: StateCompleted, Response: resp})
	if err != nil {
		return Result{}, err
	}

	if err := s.client.Set(context.WithoutCancel(ctx), fk, done, o.resultTTL).Err(); err != nil {
		return Result{}, err
	}

	return Result{Response: resp}, nil
}

func (s *StateTracker) existing(ctx context.Context, fk string) (Result, error) {
	raw, err := s.client.Get(ctx, fk).Bytes()
	if errors.Is(err, redis.Nil) {
		// The holder finished with an error and released the key between our calls.
		return Result{}, ErrInProgress
	}
	if err != nil {
		return Result{}, err
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Result{}, ErrInvalidState
	}

	switch rec.State {
	case StateInProgress:
		return Result{}, ErrInProgress
	case StateCompleted:
		return Result{Response: rec.Response, Replayed: true}, nil
	default:
		return Result{}, ErrInvalidState
	}
}
