package pgxcasbin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/persist"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

const defaultChannel = "gate_route_rules_changed"

var _ persist.Watcher = (*Watcher)(nil)

// Watcher broadcasts policy changes over Postgres LISTEN/NOTIFY so every
// instance reloads its enforcer after one of them edits the rule table.
type Watcher struct {
	mu       sync.RWMutex
	callback func(string)

	pool    *pgxpool.Pool
	channel string
	localID string
	cancel  context.CancelFunc
	done    chan struct{}
}

type WatcherOptions struct {
	Channel string
	// LocalID identifies this instance; its own notifications are skipped.
	LocalID string
}

type notifyMessage struct {
	ID string `json:"id"`
}

// NewWatcher starts listening in the background. The listener reconnects
// with capped Fibonacci backoff until Close is called.
func NewWatcher(ctx context.Context, pool *pgxpool.Pool, opt WatcherOptions) (*Watcher, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, errors.Join(ErrPingPool, err)
	}

	if opt.Channel == "" {
		opt.Channel = defaultChannel
	}
	if !identRe.MatchString(opt.Channel) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentity, opt.Channel)
	}
	if opt.LocalID == "" {
		opt.LocalID = uuid.NewString()
	}

	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w := &Watcher{
		pool:    pool,
		channel: opt.Channel,
		localID: opt.LocalID,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go w.run(listenCtx)

	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	b := retry.WithCappedDuration(5*time.Second, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		err := w.listen(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		slog.WarnContext(ctx, "pgxcasbin listener interrupted", "channel", w.channel, "error", err)
		return retry.RetryableError(err)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("pgxcasbin listener stopped", "channel", w.channel, "error", err)
	}
}

// ReloadCallback returns a watcher callback that reloads the whole policy.
func ReloadCallback(e casbin.IEnforcer) func(string) {
	return func(string) {
		if err := e.LoadPolicy(); err != nil {
			slog.Error("pgxcasbin failed to reload policy", "error", err)
		}
	}
}

func (w *Watcher) SetUpdateCallback(callback func(string)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback = callback
	return nil
}

func (w *Watcher) Update() error {
	payload, err := json.Marshal(notifyMessage{ID: w.localID})
	if err != nil {
		return err
	}

	if _, err := w.pool.Exec(context.Background(), "select pg_notify($1, $2)", w.channel, string(payload)); err != nil {
		return errors.Join(ErrNotifyMessage, err)
	}
	return nil
}

func (w *Watcher) Close() {
	w.cancel()
	<-w.done
}

func (w *Watcher) listen(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "listen "+w.channel); err != nil {
		return errors.Join(ErrListenChannel, err)
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			return errors.Join(ErrWaitNotify, err)
		}

		var msg notifyMessage
		if err := json.Unmarshal([]byte(n.Payload), &msg); err != nil {
			slog.WarnContext(ctx, "pgxcasbin malformed notification", "payload", n.Payload, "error", err)
			continue
		}
		if msg.ID == w.localID {
			continue
		}

		w.mu.RLock()
		cb := w.callback
		w.mu.RUnlock()
		if cb != nil {
			cb(n.Payload)
		}
	}
}
