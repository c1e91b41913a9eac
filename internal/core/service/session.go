package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/internal/core/port"
	"github.com/shopspring/decimal"
)

// A Session owns the quote list, contact form and recent searches of one
// visitor. Every method serializes on the session mutex.
type Session struct {
	id string

	mu     sync.Mutex
	quote  domain.Quote
	form   domain.Contact
	recent *RecentSearches

	// guarded by SessionStore.mu
	lastSeen time.Time
}

// QuoteSnapshot is a consistent copy of a session quote list.
type QuoteSnapshot struct {
	Items         []domain.QuoteItem
	ItemCount     int
	TotalQuantity int
	Total         decimal.Decimal
}

func newSession(id string, storage port.KVStorage, now time.Time) *Session {
	return &Session{
		id:       id,
		recent:   NewRecentSearches(storage),
		lastSeen: now,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) AddProduct(p domain.Product) QuoteSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quote.Add(p)
	return s.snapshot()
}

func (s *Session) RemoveProduct(productID string) (QuoteSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.quote.Remove(productID)
	return s.snapshot(), ok
}

func (s *Session) SetQuantity(productID string, n int) (QuoteSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.quote.SetQuantity(productID, n)
	return s.snapshot(), ok
}

func (s *Session) ClearQuote() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quote.Clear()
}

func (s *Session) Quote() QuoteSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() QuoteSnapshot {
	return QuoteSnapshot{
		Items:         s.quote.Items(),
		ItemCount:     s.quote.ItemCount(),
		TotalQuantity: s.quote.TotalQuantity(),
		Total:         s.quote.Total(),
	}
}

func (s *Session) SetForm(c domain.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = c
}

func (s *Session) Form() domain.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *Session) SaveSearch(ctx context.Context, term string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.recent.Save(ctx, term)
	return s.recent.List(), err
}

func (s *Session) RecentSearches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent.List()
}

func (s *Session) ClearRecentSearches(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent.Clear(ctx)
}

// submit gives fn exclusive access to the quote list and the form.
func (s *Session) submit(fn func(*domain.Quote, *domain.Contact) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.quote, &s.form)
}

type SessionStoreConfig struct {
	Storage       port.KVStorage
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// SessionStore keeps live sessions in memory. Sessions idle for longer
// than IdleTTL are dropped together with their quote lists; recent
// searches stay in Storage.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session

	storage       port.KVStorage
	idleTTL       time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	newID         func() string
}

func NewSessionStore(cfg SessionStoreConfig) *SessionStore {
	return &SessionStore{
		sessions:      make(map[string]*Session),
		storage:       cfg.Storage,
		idleTTL:       cfg.IdleTTL,
		sweepInterval: cfg.SweepInterval,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// Create starts a session and loads its persisted recent searches.
func (st *SessionStore) Create(ctx context.Context) *Session {
	s, _ := st.create(ctx, st.newID())
	return s
}

// create loads the persisted state outside of the store lock. When a
// concurrent call registered the same id meanwhile, that session wins and
// create reports false.
func (st *SessionStore) create(ctx context.Context, id string) (*Session, bool) {
	s := newSession(id, scopedStorage{st.storage, "session:" + id + ":"}, st.now())
	s.recent.Load(ctx)

	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	if cur, ok := st.sessions[id]; ok && !st.expired(cur, now) {
		cur.lastSeen = now
		return cur, false
	}
	s.lastSeen = now
	st.sessions[id] = s
	return s, true
}

func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	now := st.now()
	if st.expired(s, now) {
		delete(st.sessions, id)
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

// GetOrCreate reports whether a new session was created. An unknown but
// well-formed id is restored, so the visitor keeps the recent searches
// persisted under it.
func (st *SessionStore) GetOrCreate(ctx context.Context, id string) (*Session, bool) {
	if id == "" {
		return st.Create(ctx), true
	}
	if s, ok := st.Get(id); ok {
		return s, false
	}
	if _, err := uuid.Parse(id); err != nil {
		return st.Create(ctx), true
	}
	return st.create(ctx, id)
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Run evicts idle sessions until ctx is done.
func (st *SessionStore) Run(ctx context.Context) {
	const op = "SessionStore.Run"
	log := slog.With("op", op)

	if st.idleTTL <= 0 || st.sweepInterval <= 0 {
		log.Info("session expiry disabled")
		return
	}

	ticker := time.NewTicker(st.sweepInterval)
	defer ticker.Stop()

	log.Info("running")
	for {
		select {
		case <-ctx.Done():
			log.Info("stopped")
			return
		case <-ticker.C:
			if n := st.sweep(); n != 0 {
				log.Debug("sessions evicted", "n", n)
			}
		}
	}
}

func (st *SessionStore) sweep() (evicted int) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (st *SessionStore) expired(s *Session, now time.Time) bool {
	return st.idleTTL > 0 && now.Sub(s.lastSeen) > st.idleTTL
}

// scopedStorage namespaces keys of a shared storage.
type scopedStorage struct {
	base   port.KVStorage
	prefix string
}

func (s scopedStorage) Get(ctx context.Context, key string) ([]byte, error) {
	return s.base.Get(ctx, s.prefix+key)
}

func (s scopedStorage) Set(ctx context.Context, key string, value []byte) error {
	return s.base.Set(ctx, s.prefix+key, value)
}

func (s scopedStorage) Remove(ctx context.Context, key string) error {
	return s.base.Remove(ctx, s.prefix+key)
}
