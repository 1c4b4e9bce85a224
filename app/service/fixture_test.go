package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-entitlements/app/bus"
	"github.com/vibast-solutions/ms-go-entitlements/app/catalog"
	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
	"github.com/vibast-solutions/ms-go-entitlements/app/ledger"
	"github.com/vibast-solutions/ms-go-entitlements/app/payment"
	"github.com/vibast-solutions/ms-go-entitlements/app/repository"
	"github.com/vibast-solutions/ms-go-entitlements/config"
)

var t0 = time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC)

type fakeGateway struct {
	result    payment.Result
	panicWith string
	calls     int
}

func (f *fakeGateway) Checkout(_ context.Context, _, _ string, _ int64) payment.Result {
	f.calls++
	if f.panicWith != "" {
		panic(f.panicWith)
	}
	return f.result
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []entity.Notice
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, notice entity.Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}

func (n *recordingNotifier) kinds() []entity.NoticeKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]entity.NoticeKind, 0, len(n.notices))
	for _, notice := range n.notices {
		out = append(out, notice.Kind)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []bus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev bus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fixture struct {
	kv         *repository.MemoryStore
	users      *repository.UserRepository
	sessions   *repository.SessionRepository
	ledger     *repository.LedgerRepository
	store      *RecordStore
	reconciler *Reconciler
	svc        *EntitlementService
	gateway    *fakeGateway
	notifier   *recordingNotifier
	publisher  *recordingPublisher
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		kv:        repository.NewMemoryStore(),
		gateway:   &fakeGateway{result: payment.Result{Type: payment.ResultTypeSuccess, TransactionID: "txn_001"}},
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		now:       t0,
	}
	f.users = repository.NewUserRepository(f.kv)
	f.sessions = repository.NewSessionRepository(f.kv)
	f.ledger = repository.NewLedgerRepository(f.kv)
	f.store = NewRecordStore(f.users, f.sessions, nil, nil)
	f.reconciler = NewReconciler(f.store, f.publisher, f.notifier, nil, nil, 7)

	plans := catalog.Default()
	f.svc = NewEntitlementService(
		plans,
		f.users,
		f.sessions,
		ledger.NewWriter(plans, f.ledger),
		f.ledger,
		f.store,
		f.reconciler,
		nil,
		f.gateway,
		f.publisher,
		f.notifier,
		nil,
		nil,
		config.EntitlementConfig{ExpiringSoonDays: 7, AlertWindowDays: 30},
	)
	f.svc.clock = func() time.Time { return f.now }
	return f
}

type registerReq struct {
	payerID     string
	displayName string
}

func (r registerReq) GetPayerId() string     { return r.payerID }
func (r registerReq) GetDisplayName() string { return r.displayName }

type checkoutReq struct {
	sessionID string
	planID    string
}

func (r checkoutReq) GetSessionId() string { return r.sessionID }
func (r checkoutReq) GetPlanId() string    { return r.planID }

type confirmReq struct {
	transactionID string
	payerID       string
	planID        string
	amount        int64
	sessionID     string
}

func (r confirmReq) GetTransactionId() string { return r.transactionID }
func (r confirmReq) GetPayerId() string       { return r.payerID }
func (r confirmReq) GetPlanId() string        { return r.planID }
func (r confirmReq) GetAmountPaid() int64     { return r.amount }
func (r confirmReq) GetSessionId() string     { return r.sessionID }

// registerAndLogin creates a user and opens one session for them.
func (f *fixture) registerAndLogin(t *testing.T, payerID string) *Session {
	t.Helper()
	ctx := context.Background()

	u, err := f.users.FindByPayerID(ctx, payerID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if u == nil {
		if _, err := f.svc.Register(ctx, registerReq{payerID: payerID, displayName: "Asha"}); err != nil {
			t.Fatalf("register failed: %v", err)
		}
	}
	session, err := f.svc.Login(ctx, registerReq{payerID: payerID})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return session
}

func (f *fixture) buy(t *testing.T, sessionID, planID string) *CheckoutResult {
	t.Helper()
	res, err := f.svc.Checkout(context.Background(), checkoutReq{sessionID: sessionID, planID: planID})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if !res.Completed {
		t.Fatal("expected completed checkout")
	}
	return res
}

func (f *fixture) registry(t *testing.T, payerID string) *entity.UserRecord {
	t.Helper()
	u, err := f.users.FindByPayerID(context.Background(), payerID)
	if err != nil || u == nil {
		t.Fatalf("registry lookup failed: %v %v", u, err)
	}
	return u
}

func (f *fixture) session(t *testing.T, sessionID string) *entity.UserRecord {
	t.Helper()
	u, err := f.sessions.Find(context.Background(), sessionID)
	if err != nil || u == nil {
		t.Fatalf("session lookup failed: %v %v", u, err)
	}
	return u
}

// fakeViews stands in for the view manager: it runs the mount pass and remembers
// which payer each open session belongs to.
type fakeViews struct {
	reconciler *Reconciler
	clock      func() time.Time

	mu     sync.Mutex
	open   map[string]string
	closed []string
}

func (v *fakeViews) Open(ctx context.Context, sessionID, payerID string) (*Result, error) {
	res, err := v.reconciler.Reconcile(ctx, TriggerMount, sessionID, payerID, v.clock())
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.open[sessionID] = payerID
	return res, nil
}

func (v *fakeViews) Close(sessionID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.open, sessionID)
	v.closed = append(v.closed, sessionID)
}

func (v *fakeViews) Sessions(payerID string) []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	var ids []string
	for id, owner := range v.open {
		if owner == payerID {
			ids = append(ids, id)
		}
	}
	return ids
}

func (f *fixture) withViews() *fakeViews {
	views := &fakeViews{
		reconciler: f.reconciler,
		clock:      func() time.Time { return f.now },
		open:       make(map[string]string),
	}
	f.svc.views = views
	return views
}
