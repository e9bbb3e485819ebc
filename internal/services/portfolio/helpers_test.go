package portfolio

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/interfaces"
	"github.com/bobmcallan/paperledger/internal/models"
	"github.com/bobmcallan/paperledger/internal/storage"
)

var errGateway = errors.New("gateway down")

// fakeGateway is an in-memory PriceGateway with per-method call counts.
type fakeGateway struct {
	mu           sync.Mutex
	quotes       map[string]*models.Quote
	optionQuotes map[string]*models.OptionQuote
	closes       map[string][]models.ClosePoint
	fast         map[string]float64

	quoteErr   error
	optionErr  error
	historyErr error
	fastErr    error

	quoteCalls    int
	batchCalls    int
	optionCalls   int
	historyCalls  int
	fastCalls     int
	lastHistoryTo time.Time
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		quotes:       make(map[string]*models.Quote),
		optionQuotes: make(map[string]*models.OptionQuote),
		closes:       make(map[string][]models.ClosePoint),
		fast:         make(map[string]float64),
	}
}

func (g *fakeGateway) setPrice(symbol string, price, prevClose float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.quotes[symbol] = &models.Quote{Symbol: symbol, Price: price, PreviousClose: prevClose}
}

func (g *fakeGateway) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.quoteCalls++
	if g.quoteErr != nil {
		return nil, g.quoteErr
	}
	q, ok := g.quotes[symbol]
	if !ok {
		return &models.Quote{Symbol: symbol}, nil
	}
	c := *q
	return &c, nil
}

func (g *fakeGateway) GetQuotes(_ context.Context, symbols []string) (map[string]*models.Quote, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.batchCalls++
	if g.quoteErr != nil {
		return nil, g.quoteErr
	}
	out := make(map[string]*models.Quote)
	for _, s := range symbols {
		if q, ok := g.quotes[s]; ok {
			c := *q
			out[s] = &c
		}
	}
	return out, nil
}

func (g *fakeGateway) GetOptionQuote(_ context.Context, contract string) (*models.OptionQuote, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.optionCalls++
	if g.optionErr != nil {
		return nil, g.optionErr
	}
	q, ok := g.optionQuotes[contract]
	if !ok {
		return nil, errors.New("no such contract")
	}
	c := *q
	return &c, nil
}

func (g *fakeGateway) GetHistoricalCloses(_ context.Context, symbols []string, _, to time.Time) (map[string][]models.ClosePoint, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.historyCalls++
	g.lastHistoryTo = to
	if g.historyErr != nil {
		return nil, g.historyErr
	}
	out := make(map[string][]models.ClosePoint)
	for _, s := range symbols {
		if c, ok := g.closes[s]; ok {
			out[s] = append([]models.ClosePoint(nil), c...)
		}
	}
	return out, nil
}

func (g *fakeGateway) GetFastLastPrice(_ context.Context, contract string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fastCalls++
	if g.fastErr != nil {
		return 0, g.fastErr
	}
	return g.fast[contract], nil
}

var _ interfaces.PriceGateway = (*fakeGateway)(nil)

// failingLedgerStore wraps a store and fails Save on demand.
type failingLedgerStore struct {
	interfaces.LedgerStore
	failSave bool
}

func (s *failingLedgerStore) Save(ctx context.Context, p *models.Portfolio) error {
	if s.failSave {
		return errors.New("disk full")
	}
	return s.LedgerStore.Save(ctx, p)
}

// failingSnapshotStore rejects appends.
type failingSnapshotStore struct {
	interfaces.SnapshotStore
}

func (failingSnapshotStore) Append(context.Context, string, models.Snapshot) error {
	return errors.New("snapshot db locked")
}

type testEnv struct {
	svc       *Service
	gateway   *fakeGateway
	ledgers   *failingLedgerStore
	snapshots interfaces.SnapshotStore
	clock     time.Time
}

// newTestEnv builds a Service over memory stores with a fixed clock.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		gateway:   newFakeGateway(),
		ledgers:   &failingLedgerStore{LedgerStore: storage.NewMemoryLedgerStore()},
		snapshots: storage.NewMemorySnapshotStore(),
		clock:     time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC),
	}
	env.svc = env.newService()
	return env
}

func (e *testEnv) newService() *Service {
	cfg := common.NewDefaultConfig().Ledger
	mgr := storage.NewManagerFromStores(common.NewSilentLogger(), e.ledgers, e.snapshots)
	svc := NewService(mgr, e.gateway, &cfg, common.NewSilentLogger())
	svc.now = func() time.Time { return e.clock }
	return svc
}

func approxEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
