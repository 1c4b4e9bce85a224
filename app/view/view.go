// Package view keeps one logged-in session reconciled for as long as it is open:
// a pass on open, a pass on every relevant bus signal and a pass on every tick.
package view

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-entitlements/app/bus"
	"github.com/vibast-solutions/ms-go-entitlements/app/repository"
	"github.com/vibast-solutions/ms-go-entitlements/app/service"
)

const DefaultInterval = 60 * time.Second

type reconciler interface {
	Reconcile(ctx context.Context, trigger service.Trigger, sessionID, payerID string, now time.Time) (*service.Result, error)
}

type subscriber interface {
	Subscribe(topic bus.Topic, h bus.Handler) func()
}

type Options struct {
	Interval time.Duration
	Clock    func() time.Time
	Logger   logrus.FieldLogger
	// OnResult is called from the view goroutine after every pass.
	OnResult func(*service.Result)
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}

type View struct {
	sessionID  string
	payerID    string
	reconciler reconciler
	opts       Options
	logger     logrus.FieldLogger

	signal      chan struct{}
	cancel      context.CancelFunc
	done        chan struct{}
	unsubscribe []func()
	closeOnce   sync.Once

	mu     sync.RWMutex
	result *service.Result
}

// Open runs the mount pass and, if it succeeds, starts the view goroutine. The
// caller must Close the view.
func Open(ctx context.Context, sessionID, payerID string, r reconciler, b subscriber, opts Options) (*View, error) {
	opts = opts.withDefaults()

	res, err := r.Reconcile(ctx, service.TriggerMount, sessionID, payerID, opts.Clock())
	if err != nil {
		return nil, err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	v := &View{
		sessionID:  sessionID,
		payerID:    payerID,
		reconciler: r,
		opts:       opts,
		logger: opts.Logger.WithFields(logrus.Fields{
			"session_id": sessionID,
			"payer_id":   payerID,
		}),
		signal: make(chan struct{}, 1),
		cancel: cancel,
		done:   make(chan struct{}),
		result: res,
	}
	if opts.OnResult != nil {
		opts.OnResult(res)
	}

	if b != nil {
		v.unsubscribe = append(v.unsubscribe,
			b.Subscribe(bus.TopicEntitlementChanged, v.handle),
			b.Subscribe(bus.TopicStorageChanged, v.handle),
		)
	}

	go v.loop(loopCtx)
	return v, nil
}

func (v *View) SessionID() string {
	return v.sessionID
}

func (v *View) PayerID() string {
	return v.payerID
}

// Result returns the outcome of the latest pass.
func (v *View) Result() *service.Result {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.result
}

// Close stops the timer and the subscriptions and waits for an in-flight pass to
// finish. No storage write happens on behalf of this view once Close returns.
func (v *View) Close() {
	v.closeOnce.Do(func() {
		for _, unsubscribe := range v.unsubscribe {
			unsubscribe()
		}
		v.cancel()
		<-v.done
	})
}

// handle runs on the publisher's goroutine, possibly inside a storage write, so it
// only schedules a pass.
func (v *View) handle(_ context.Context, ev bus.Event) {
	if ev.PayerID != "" && !strings.EqualFold(strings.TrimSpace(ev.PayerID), v.payerID) {
		return
	}
	if ev.Key != "" && !repository.IsEntitlementKey(ev.Key) {
		return
	}
	select {
	case v.signal <- struct{}{}:
	default:
	}
}

func (v *View) loop(ctx context.Context) {
	defer close(v.done)

	ticker := time.NewTicker(v.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.run(ctx, service.TriggerTimer)
		case <-v.signal:
			v.run(ctx, service.TriggerSignal)
		}
	}
}

func (v *View) run(ctx context.Context, trigger service.Trigger) {
	if ctx.Err() != nil {
		return
	}

	res, err := v.reconciler.Reconcile(ctx, trigger, v.sessionID, v.payerID, v.opts.Clock())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		v.logger.WithError(err).WithField("trigger", trigger).Warn("View reconciliation failed")
		return
	}

	v.mu.Lock()
	v.result = res
	v.mu.Unlock()

	if res.Downgraded && res.Notice != nil {
		v.logger.WithField("reason", res.Reason).Info(res.Notice.Message)
	}
	if v.opts.OnResult != nil {
		v.opts.OnResult(res)
	}
}
