package authcache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chikage/tgsearchbot/internal/authcache"
	"github.com/chikage/tgsearchbot/internal/model"
)

type fakeChatSource struct {
	chats []model.Chat
	err   error
	calls atomic.Int64
}

func (f *fakeChatSource) ListEnabledChats(context.Context) ([]model.Chat, error) {
	f.calls.Add(1)
	return f.chats, f.err
}

type fakeMembership struct {
	members map[int64]map[int64]bool // chatID -> userID -> member
	errs    map[int64]error          // chatID -> error
	delay   time.Duration
	calls   atomic.Int64
}

func (f *fakeMembership) IsChatMember(_ context.Context, chatID, userID int64) (bool, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err, ok := f.errs[chatID]; ok {
		return false, err
	}
	return f.members[chatID][userID], nil
}

func enabledChats(ids ...int64) []model.Chat {
	chats := make([]model.Chat, 0, len(ids))
	for _, id := range ids {
		chats = append(chats, model.Chat{ID: id})
	}
	return chats
}

func chatIDs(chats []model.Chat) []int64 {
	ids := make([]int64, 0, len(chats))
	for _, c := range chats {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestCachePopulatesFromMembership(t *testing.T) {
	t.Parallel()

	source := &fakeChatSource{chats: enabledChats(-1001, -1002, -1003)}
	membership := &fakeMembership{members: map[int64]map[int64]bool{
		-1001: {7: true},
		-1003: {7: true},
	}}
	cache := authcache.New(nil, source, membership, time.Minute)

	got, err := cache.AuthorizedChats(context.Background(), 7)
	if err != nil {
		t.Fatalf("AuthorizedChats() error: %v", err)
	}

	ids := chatIDs(got)
	if len(ids) != 2 || ids[0] != -1001 || ids[1] != -1003 {
		t.Errorf("authorized chats = %v, want [-1001 -1003]", ids)
	}
}

func TestCacheHitSkipsIO(t *testing.T) {
	t.Parallel()

	source := &fakeChatSource{chats: enabledChats(-1001, -1002)}
	membership := &fakeMembership{members: map[int64]map[int64]bool{
		-1001: {7: true},
		-1002: {7: true},
	}}
	cache := authcache.New(nil, source, membership, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := cache.AuthorizedChats(context.Background(), 7); err != nil {
			t.Fatalf("AuthorizedChats() error: %v", err)
		}
	}

	if got := source.calls.Load(); got != 1 {
		t.Errorf("registry read %d times, want 1", got)
	}
	if got := membership.calls.Load(); got != 2 {
		t.Errorf("membership checked %d times, want 2", got)
	}
}

func TestCacheRepopulatesAfterExpiry(t *testing.T) {
	t.Parallel()

	source := &fakeChatSource{chats: enabledChats(-1001)}
	membership := &fakeMembership{members: map[int64]map[int64]bool{-1001: {7: true}}}
	cache := authcache.New(nil, source, membership, 30*time.Millisecond)

	if _, err := cache.AuthorizedChats(context.Background(), 7); err != nil {
		t.Fatalf("AuthorizedChats() error: %v", err)
	}
	time.Sleep(80 * time.Millisecond)
	if _, err := cache.AuthorizedChats(context.Background(), 7); err != nil {
		t.Fatalf("AuthorizedChats() error: %v", err)
	}

	if got := source.calls.Load(); got != 2 {
		t.Errorf("registry read %d times, want 2 (entry must expire)", got)
	}
}

func TestCacheMembershipErrorExcludesChat(t *testing.T) {
	t.Parallel()

	source := &fakeChatSource{chats: enabledChats(-1001, -1002)}
	membership := &fakeMembership{
		members: map[int64]map[int64]bool{-1002: {7: true}},
		errs:    map[int64]error{-1001: errors.New("chat not found")},
	}
	cache := authcache.New(nil, source, membership, time.Minute)

	got, err := cache.AuthorizedChats(context.Background(), 7)
	if err != nil {
		t.Fatalf("AuthorizedChats() error: %v", err)
	}
	ids := chatIDs(got)
	if len(ids) != 1 || ids[0] != -1002 {
		t.Errorf("authorized chats = %v, want [-1002]", ids)
	}
}

func TestCacheRegistryErrorSurfaces(t *testing.T) {
	t.Parallel()

	source := &fakeChatSource{err: errors.New("db closed")}
	cache := authcache.New(nil, source, &fakeMembership{}, time.Minute)

	if _, err := cache.AuthorizedChats(context.Background(), 7); err == nil {
		t.Error("AuthorizedChats() = nil, want registry error")
	}
}

func TestCacheEmptySetIsCached(t *testing.T) {
	t.Parallel()

	source := &fakeChatSource{chats: enabledChats(-1001)}
	membership := &fakeMembership{} // user is a member of nothing
	cache := authcache.New(nil, source, membership, time.Minute)

	for i := 0; i < 2; i++ {
		got, err := cache.AuthorizedChats(context.Background(), 7)
		if err != nil {
			t.Fatalf("AuthorizedChats() error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("authorized chats = %v, want empty", got)
		}
	}

	if got := source.calls.Load(); got != 1 {
		t.Errorf("registry read %d times, want 1 (empty sets cache too)", got)
	}
}

// Concurrent lookups for one user must coalesce into a single population.
func TestCacheCoalescesConcurrentPopulations(t *testing.T) {
	t.Parallel()

	source := &fakeChatSource{chats: enabledChats(-1001)}
	membership := &fakeMembership{
		members: map[int64]map[int64]bool{-1001: {7: true}},
		delay:   20 * time.Millisecond,
	}
	cache := authcache.New(nil, source, membership, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.AuthorizedChats(context.Background(), 7); err != nil {
				t.Errorf("AuthorizedChats() error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := source.calls.Load(); got != 1 {
		t.Errorf("registry read %d times, want 1 (populations must coalesce)", got)
	}
}
