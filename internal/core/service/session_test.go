package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestSessionStore(
	storage *memStorage, ttl time.Duration,
) (*SessionStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	st := NewSessionStore(SessionStoreConfig{
		Storage:       storage,
		IdleTTL:       ttl,
		SweepInterval: time.Millisecond,
	})
	st.now = clock.Now
	return st, clock
}

func TestSession(t *testing.T) {
	st, _ := newTestSessionStore(newMemStorage(), time.Hour)
	s := st.Create(t.Context())

	t.Run("QuoteSnapshot", func(t *testing.T) {
		s.AddProduct(stapler)
		snap := s.AddProduct(stapler)
		assert.Equal(t, 1, snap.ItemCount)
		assert.Equal(t, 2, snap.TotalQuantity)
		assert.Equal(t, "100", snap.Total.String())

		snap, ok := s.SetQuantity(stapler.ID, 3)
		assert.True(t, ok)
		assert.Equal(t, 3, snap.Items[0].Quantity)

		_, ok = s.RemoveProduct("missing")
		assert.False(t, ok)

		snap, ok = s.RemoveProduct(stapler.ID)
		assert.True(t, ok)
		assert.Equal(t, 0, snap.ItemCount)
	})

	t.Run("Form", func(t *testing.T) {
		c := domain.Contact{Name: "Jane", Phone: "12345"}
		s.SetForm(c)
		assert.Equal(t, c, s.Form())
	})

	t.Run("ConcurrentAdds", func(t *testing.T) {
		s.ClearQuote()
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.AddProduct(paper)
			}()
		}
		wg.Wait()

		snap := s.Quote()
		require.Equal(t, 1, snap.ItemCount)
		assert.Equal(t, 50, snap.TotalQuantity)
	})
}

func TestSessionStore(t *testing.T) {
	t.Run("GetOrCreate", func(t *testing.T) {
		st, _ := newTestSessionStore(newMemStorage(), time.Hour)

		s, created := st.GetOrCreate(t.Context(), "")
		require.True(t, created)

		got, created := st.GetOrCreate(t.Context(), s.ID())
		assert.False(t, created)
		assert.Same(t, s, got)

		other, created := st.GetOrCreate(t.Context(), "not-a-session")
		assert.True(t, created)
		assert.NotEqual(t, "not-a-session", other.ID())
		assert.Equal(t, 2, st.Len())
	})

	t.Run("IdleSessionExpires", func(t *testing.T) {
		st, clock := newTestSessionStore(newMemStorage(), time.Hour)
		s := st.Create(t.Context())

		clock.Advance(59 * time.Minute)
		_, ok := st.Get(s.ID())
		require.True(t, ok)

		clock.Advance(59 * time.Minute)
		_, ok = st.Get(s.ID())
		require.True(t, ok, "access extends the session")

		clock.Advance(61 * time.Minute)
		_, ok = st.Get(s.ID())
		assert.False(t, ok)
		assert.Equal(t, 0, st.Len())
	})

	t.Run("Sweep", func(t *testing.T) {
		st, clock := newTestSessionStore(newMemStorage(), time.Minute)
		old := st.Create(t.Context())
		clock.Advance(2 * time.Minute)
		fresh := st.Create(t.Context())

		assert.Equal(t, 1, st.sweep())
		_, ok := st.Get(old.ID())
		assert.False(t, ok)
		_, ok = st.Get(fresh.ID())
		assert.True(t, ok)
	})

	t.Run("RecentSearchesOutliveSession", func(t *testing.T) {
		storage := newMemStorage()
		st, clock := newTestSessionStore(storage, time.Minute)

		s := st.Create(t.Context())
		_, err := s.SaveSearch(t.Context(), "chair")
		require.NoError(t, err)
		s.AddProduct(stapler)
		assert.Contains(t, storage.data, "session:"+s.ID()+":"+RecentSearchesKey)

		clock.Advance(2 * time.Minute)
		require.Equal(t, 1, st.sweep())

		restored, created := st.GetOrCreate(t.Context(), s.ID())
		require.True(t, created)
		assert.Equal(t, s.ID(), restored.ID())
		assert.Equal(t, []string{"chair"}, restored.RecentSearches())
		assert.Equal(t, 0, restored.Quote().ItemCount)
	})

	t.Run("ConcurrentRestoreSharesSession", func(t *testing.T) {
		storage := newMemStorage()
		storage.getDelay = 5 * time.Millisecond
		st, _ := newTestSessionStore(storage, time.Hour)

		for range 20 {
			id := uuid.NewString()
			var (
				wg      sync.WaitGroup
				created [2]bool
			)
			for i, p := range []domain.Product{stapler, paper} {
				wg.Add(1)
				go func() {
					defer wg.Done()
					s, ok := st.GetOrCreate(t.Context(), id)
					created[i] = ok
					s.AddProduct(p)
				}()
			}
			wg.Wait()

			s, ok := st.Get(id)
			require.True(t, ok)
			assert.Equal(t, 2, s.Quote().ItemCount)
			assert.True(t, created[0] != created[1], "exactly one call restores")
		}
	})

	t.Run("SessionsDoNotShareSearches", func(t *testing.T) {
		st, _ := newTestSessionStore(newMemStorage(), time.Hour)
		a := st.Create(t.Context())
		b := st.Create(t.Context())

		_, err := a.SaveSearch(t.Context(), "toner")
		require.NoError(t, err)
		assert.Empty(t, b.RecentSearches())

		require.NoError(t, a.ClearRecentSearches(t.Context()))
		assert.Empty(t, a.RecentSearches())
	})

	t.Run("RunEvictsUntilCanceled", func(t *testing.T) {
		st, clock := newTestSessionStore(newMemStorage(), time.Minute)
		s := st.Create(t.Context())
		clock.Advance(time.Hour)

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan struct{})
		go func() {
			defer close(done)
			st.Run(ctx)
		}()

		assert.Eventually(t, func() bool { return st.Len() == 0 },
			time.Second, 5*time.Millisecond)
		_, ok := st.Get(s.ID())
		assert.False(t, ok)

		cancel()
		<-done
	})

	t.Run("RunWithoutTTLReturns", func(t *testing.T) {
		st := NewSessionStore(SessionStoreConfig{Storage: newMemStorage()})
		st.Run(t.Context())
	})

	t.Run("NewIDsAreUUIDs", func(t *testing.T) {
		st, _ := newTestSessionStore(newMemStorage(), time.Hour)
		_, err := uuid.Parse(st.Create(t.Context()).ID())
		assert.NoError(t, err)
	})
}
