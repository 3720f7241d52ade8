// Package authcache answers "which chats may this user search" from an
// in-memory, TTL-bounded cache of live membership lookups.
package authcache

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/chikage/tgsearchbot/internal/model"
)

// DefaultTTL is how long a populated authorization entry stays valid.
const DefaultTTL = 120 * time.Second

// ChatSource lists the chats that are candidates for authorization, i.e.
// every chat currently enabled for logging.
type ChatSource interface {
	ListEnabledChats(ctx context.Context) ([]model.Chat, error)
}

// MembershipChecker queries live membership of a user in a chat. Transport
// errors are treated by the cache as "not a member", never as retryable.
type MembershipChecker interface {
	IsChatMember(ctx context.Context, chatID, userID int64) (bool, error)
}

type entry struct {
	chats     []model.Chat
	createdAt time.Time
	gen       uint64
}

// Cache is the per-user authorization cache. Populations for the same user
// coalesce through a singleflight group, so at most one membership scan per
// user is in flight while different users populate concurrently. Readers
// only ever observe fully populated sets.
type Cache struct {
	logger     *slog.Logger
	chats      ChatSource
	membership MembershipChecker
	ttl        time.Duration

	mu      sync.Mutex
	entries map[int64]*entry
	gen     uint64

	flight singleflight.Group
}

// New creates an authorization cache. A non-positive ttl falls back to
// DefaultTTL.
func New(logger *slog.Logger, chats ChatSource, membership MembershipChecker, ttl time.Duration) *Cache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		logger:     logger.With("component", "authcache"),
		chats:      chats,
		membership: membership,
		ttl:        ttl,
		entries:    make(map[int64]*entry),
	}
}

// AuthorizedChats returns the set of chats the user may search. A live
// cache entry is returned without I/O; otherwise the set is populated by
// checking the user's membership in every enabled chat and cached for the
// TTL. The returned slice must not be mutated by the caller.
func (c *Cache) AuthorizedChats(ctx context.Context, userID int64) ([]model.Chat, error) {
	if chats, ok := c.lookup(userID); ok {
		return chats, nil
	}

	v, err, _ := c.flight.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		// A coalesced caller may arrive just after the previous flight
		// stored its result.
		if chats, ok := c.lookup(userID); ok {
			return chats, nil
		}

		chats, err := c.populate(ctx, userID)
		if err != nil {
			return nil, err
		}
		c.store(userID, chats)
		return chats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Chat), nil
}

// lookup returns a copy of a live entry's chat set.
func (c *Cache) lookup(userID int64) ([]model.Chat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[userID]
	if !ok || time.Since(e.createdAt) >= c.ttl {
		return nil, false
	}
	return append([]model.Chat(nil), e.chats...), true
}

// populate scans every enabled chat for the user's membership. A failed
// membership check counts as "not a member" and never fails the scan; a
// registry read failure is surfaced.
func (c *Cache) populate(ctx context.Context, userID int64) ([]model.Chat, error) {
	candidates, err := c.chats.ListEnabledChats(ctx)
	if err != nil {
		return nil, err
	}

	authorized := make([]model.Chat, 0, len(candidates))
	for _, chat := range candidates {
		member, err := c.membership.IsChatMember(ctx, chat.ID, userID)
		if err != nil {
			c.logger.DebugContext(ctx, "Membership check failed, treating as absent",
				"chat_id", chat.ID, "user_id", userID, "error", err)
			continue
		}
		if member {
			authorized = append(authorized, chat)
		}
	}

	c.logger.DebugContext(ctx, "Authorization populated",
		"user_id", userID, "candidates", len(candidates), "authorized", len(authorized))
	return authorized, nil
}

// store records the populated entry and schedules its removal after the
// TTL. The removal is generation-checked: if a newer population reused the
// key in the interim, the stale timer leaves it alone.
func (c *Cache) store(userID int64, chats []model.Chat) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.entries[userID] = &entry{chats: chats, createdAt: time.Now(), gen: gen}
	c.mu.Unlock()

	time.AfterFunc(c.ttl, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if e, ok := c.entries[userID]; ok && e.gen == gen {
			delete(c.entries, userID)
			c.logger.Debug("Authorization entry expired", "user_id", userID)
		}
	})
}
