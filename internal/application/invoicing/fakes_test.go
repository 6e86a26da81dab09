package invoicing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// memoryState is the whole persisted world of a test: invoices, receipts
// and both ledgers. Transactions snapshot it and restore on error.
type memoryState struct {
	invoices map[uuid.UUID]*invoicing.Invoice
	receipts map[uuid.UUID]invoicing.Payment
	stock    map[uuid.UUID]decimal.Decimal
	balances map[uuid.UUID]decimal.Decimal
}

func (s memoryState) clone() memoryState {
	c := memoryState{
		invoices: make(map[uuid.UUID]*invoicing.Invoice, len(s.invoices)),
		receipts: make(map[uuid.UUID]invoicing.Payment, len(s.receipts)),
		stock:    make(map[uuid.UUID]decimal.Decimal, len(s.stock)),
		balances: make(map[uuid.UUID]decimal.Decimal, len(s.balances)),
	}
	for k, v := range s.invoices {
		c.invoices[k] = copyInvoice(v)
	}
	for k, v := range s.receipts {
		c.receipts[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	return c
}

func copyInvoice(inv *invoicing.Invoice) *invoicing.Invoice {
	cp := *inv
	cp.Items = append([]invoicing.InvoiceItem(nil), inv.Items...)
	cp.Ledger = invoicing.NewPaymentLedger(inv.Ledger.Entries())
	cp.ClearDomainEvents()
	return &cp
}

// memoryBackend implements the repositories, ports and transaction scope
type memoryBackend struct {
	mu    sync.Mutex
	state memoryState

	stockErr      error
	balanceErr    error
	conflictsLeft int
	saves         int
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{state: memoryState{
		invoices: map[uuid.UUID]*invoicing.Invoice{},
		receipts: map[uuid.UUID]invoicing.Payment{},
		stock:    map[uuid.UUID]decimal.Decimal{},
		balances: map[uuid.UUID]decimal.Decimal{},
	}}
}

func (b *memoryBackend) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := b.state.clone()
	if err := fn(txRepos{b}); err != nil {
		b.state = snapshot
		return err
	}
	return nil
}

func (b *memoryBackend) stockOf(productID uuid.UUID) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.stock[productID]
}

func (b *memoryBackend) balanceOf(customerID uuid.UUID) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.balances[customerID]
}

func (b *memoryBackend) setStock(productID uuid.UUID, qty int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.stock[productID] = decimal.NewFromInt(qty)
}

// txRepos exposes the backend without taking the lock again; Execute holds it
type txRepos struct{ b *memoryBackend }

func (r txRepos) InvoiceRepo() invoicing.InvoiceRepository { return lockedInvoices{r.b} }
func (r txRepos) PaymentRepo() invoicing.PaymentRepository { return lockedPayments{r.b} }
func (r txRepos) StockPort() invoicing.StockPort { return memoryStock{r.b} }
func (r txRepos) BalancePort() invoicing.CustomerBalancePort { return memoryBalances{r.b} }

// lockedInvoices assumes the caller holds b.mu
type lockedInvoices struct{ b *memoryBackend }

func (r lockedInvoices) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	inv, ok := r.b.state.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return copyInvoice(inv), nil
}

func (r lockedInvoices) FindAllForTenant(_ context.Context, tenantID uuid.UUID, filter shared.Filter) ([]invoicing.Invoice, error) {
	var out []invoicing.Invoice
	for _, inv := range r.b.state.invoices {
		if inv.TenantID != tenantID {
			continue
		}
		if status, ok := filter.Filters["status"].(int); ok && int(inv.Status) != status {
			continue
		}
		if customerID, ok := filter.Filters["customer_id"].(uuid.UUID); ok && inv.CustomerID != customerID {
			continue
		}
		out = append(out, *copyInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r lockedInvoices) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	all, _ := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r lockedInvoices) Save(_ context.Context, inv *invoicing.Invoice) error {
	r.b.saves++
	r.b.state.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (r lockedInvoices) SaveWithLock(_ context.Context, inv *invoicing.Invoice) error {
	stored, ok := r.b.state.invoices[inv.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if r.b.conflictsLeft > 0 {
		r.b.conflictsLeft--
		return shared.ErrConcurrencyConflict
	}
	if stored.Version != inv.Version {
		return shared.ErrConcurrencyConflict
	}
	inv.Version++
	r.b.saves++
	r.b.state.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (r lockedInvoices) DeleteForTenant(_ context.Context, tenantID, id uuid.UUID) error {
	inv, ok := r.b.state.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return shared.ErrNotFound
	}
	delete(r.b.state.invoices, id)
	return nil
}

type lockedPayments struct{ b *memoryBackend }

func (r lockedPayments) all(tenantID uuid.UUID) []invoicing.Payment {
	var out []invoicing.Payment
	for _, inv := range r.b.state.invoices {
		if inv.TenantID == tenantID {
			out = append(out, inv.Ledger.Entries()...)
		}
	}
	for _, p := range r.b.state.receipts {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out
}

func (r lockedPayments) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*invoicing.Payment, error) {
	for _, p := range r.all(tenantID) {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r lockedPayments) FindByIdempotencyKey(_ context.Context, tenantID uuid.UUID, key string) (*invoicing.Payment, error) {
	for _, p := range r.all(tenantID) {
		if p.IdempotencyKey == key {
			p := p
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r lockedPayments) FindByInvoice(_ context.Context, tenantID, invoiceID uuid.UUID, includeReversed bool) ([]invoicing.Payment, error) {
	inv, ok := r.b.state.invoices[invoiceID]
	if !ok || inv.TenantID != tenantID {
		return nil, nil
	}
	if includeReversed {
		return inv.Ledger.Entries(), nil
	}
	return inv.Ledger.Active(), nil
}

func (r lockedPayments) FindByCustomer(_ context.Context, tenantID, customerID uuid.UUID, _ shared.Filter) ([]invoicing.Payment, error) {
	var out []invoicing.Payment
	for _, p := range r.all(tenantID) {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r lockedPayments) CountByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) (int64, error) {
	out, _ := r.FindByCustomer(ctx, tenantID, customerID, filter)
	return int64(len(out)), nil
}

func (r lockedPayments) Save(_ context.Context, p *invoicing.Payment) error {
	r.b.state.receipts[p.ID] = *p
	return nil
}

type memoryStock struct{ b *memoryBackend }

func (s memoryStock) Decrement(_ context.Context, _ uuid.UUID, lines []invoicing.StockLine) error {
	if s.b.stockErr != nil {
		return s.b.stockErr
	}
	for _, l := range lines {
		s.b.state.stock[l.ProductID] = s.b.state.stock[l.ProductID].Sub(l.Quantity)
	}
	return nil
}

func (s memoryStock) Restore(_ context.Context, _ uuid.UUID, lines []invoicing.StockLine) error {
	if s.b.stockErr != nil {
		return s.b.stockErr
	}
	for _, l := range lines {
		s.b.state.stock[l.ProductID] = s.b.state.stock[l.ProductID].Add(l.Quantity)
	}
	return nil
}

type memoryBalances struct{ b *memoryBackend }

func (m memoryBalances) Increase(_ context.Context, _, customerID uuid.UUID, amount decimal.Decimal) error {
	if m.b.balanceErr != nil {
		return m.b.balanceErr
	}
	m.b.state.balances[customerID] = m.b.state.balances[customerID].Add(amount)
	return nil
}

func (m memoryBalances) Decrease(_ context.Context, _, customerID uuid.UUID, amount decimal.Decimal) error {
	if m.b.balanceErr != nil {
		return m.b.balanceErr
	}
	m.b.state.balances[customerID] = m.b.state.balances[customerID].Sub(amount)
	return nil
}

// readInvoices serves reads outside a transaction
type readInvoices struct{ b *memoryBackend }

func (r readInvoices) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	return lockedInvoices(r).FindByIDForTenant(ctx, tenantID, id)
}

func (r readInvoices) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]invoicing.Invoice, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	return lockedInvoices(r).FindAllForTenant(ctx, tenantID, filter)
}

func (r readInvoices) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	return lockedInvoices(r).CountForTenant(ctx, tenantID, filter)
}

func (r readInvoices) Save(context.Context, *invoicing.Invoice) error         { panic("read only") }
func (r readInvoices) SaveWithLock(context.Context, *invoicing.Invoice) error { panic("read only") }
func (r readInvoices) DeleteForTenant(context.Context, uuid.UUID, uuid.UUID) error {
	panic("read only")
}

type readPayments struct{ b *memoryBackend }

func (r readPayments) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Payment, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	return lockedPayments(r).FindByIDForTenant(ctx, tenantID, id)
}

func (r readPayments) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*invoicing.Payment, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	return lockedPayments(r).FindByIdempotencyKey(ctx, tenantID, key)
}

func (r readPayments) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, includeReversed bool) ([]invoicing.Payment, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	return lockedPayments(r).FindByInvoice(ctx, tenantID, invoiceID, includeReversed)
}

func (r readPayments) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]invoicing.Payment, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	return lockedPayments(r).FindByCustomer(ctx, tenantID, customerID, filter)
}

func (r readPayments) CountByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) (int64, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	return lockedPayments(r).CountByCustomer(ctx, tenantID, customerID, filter)
}

func (r readPayments) Save(context.Context, *invoicing.Payment) error { panic("read only") }

// memoryActivities is a slice backed activity repository
type memoryActivities struct {
	mu    sync.Mutex
	items []invoicing.Activity
	err   error
}

func (m *memoryActivities) Save(_ context.Context, a *invoicing.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.items = append(m.items, *a)
	return nil
}

func (m *memoryActivities) FindByInvoice(_ context.Context, tenantID, invoiceID uuid.UUID) ([]invoicing.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []invoicing.Activity
	for _, a := range m.items {
		if a.TenantID == tenantID && a.InvoiceID == invoiceID {
			out = append(out, a)
		}
	}
	return out, nil
}

// keyedGuard is a minimal per key mutex
type keyedGuard struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (g *keyedGuard) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	if g.locks == nil {
		g.locks = map[string]*sync.Mutex{}
	}
	l, ok := g.locks[key]
	if !ok {
		l = &sync.Mutex{}
		g.locks[key] = l
	}
	g.mu.Unlock()

	l.Lock()
	return l.Unlock, nil
}

// spyGuard wraps a guard and records every acquired key and the peak number
// of concurrent holders per key. hold keeps the key held a little longer so
// overlapping holders show up.
type spyGuard struct {
	inner MutationGuard
	hold  time.Duration

	mu      sync.Mutex
	keys    []string
	holders map[string]int
	peak    map[string]int
}

func newSpyGuard(inner MutationGuard) *spyGuard {
	return &spyGuard{inner: inner, holders: map[string]int{}, peak: map[string]int{}}
}

func (g *spyGuard) Acquire(ctx context.Context, key string) (func(), error) {
	release, err := g.inner.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.keys = append(g.keys, key)
	g.holders[key]++
	if g.holders[key] > g.peak[key] {
		g.peak[key] = g.holders[key]
	}
	g.mu.Unlock()
	if g.hold > 0 {
		time.Sleep(g.hold)
	}
	return func() {
		g.mu.Lock()
		g.holders[key]--
		g.mu.Unlock()
		release()
	}, nil
}

// taken returns the keys acquired since the last call
func (g *spyGuard) taken() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	keys := g.keys
	g.keys = nil
	return keys
}

func (g *spyGuard) peakHolders(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak[key]
}

// MockEventPublisher is a testify mock of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// memoryIdempotency is a map backed shared.IdempotencyStore
type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]time.Time
}

func (m *memoryIdempotency) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = map[string]time.Time{}
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = time.Now()
	return true, nil
}

func (m *memoryIdempotency) IsProcessed(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[key]
	return ok, nil
}

func (m *memoryIdempotency) Forget(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func (m *memoryIdempotency) Close() error { return nil }

// projectingPublisher delivers events synchronously to one handler
type projectingPublisher struct {
	handler shared.EventHandler
}

func (p *projectingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		if err := p.handler.Handle(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
