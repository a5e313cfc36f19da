package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// MemberSource fetches member profiles from the platform gateway.
type MemberSource interface {
	LookupMember(ctx context.Context, userID string) (string, error)
}

// MemberDirectory caches display names with TTL to avoid hammering the
// platform on every leaderboard or reveal render.
type MemberDirectory struct {
	source MemberSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedName
}

type cachedName struct {
	name      string
	expiresAt time.Time
}

func NewMemberDirectory(source MemberSource, ttl time.Duration) *MemberDirectory {
	return &MemberDirectory{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedName),
	}
}

func (d *MemberDirectory) DisplayName(ctx context.Context, userID string) (string, error) {
	now := d.clock()

	d.mu.RLock()
	if entry, ok := d.cache[userID]; ok && entry.expiresAt.After(now) {
		d.mu.RUnlock()
		return entry.name, nil
	}
	d.mu.RUnlock()

	result, err, _ := d.sf.Do(userID, func() (interface{}, error) {
		now := d.clock()
		d.mu.RLock()
		if entry, ok := d.cache[userID]; ok && entry.expiresAt.After(now) {
			d.mu.RUnlock()
			return entry.name, nil
		}
		d.mu.RUnlock()

		name, err := d.source.LookupMember(ctx, userID)
		if err != nil {
			return "", err
		}

		d.mu.Lock()
		d.cache[userID] = cachedName{
			name:      name,
			expiresAt: now.Add(d.ttlWithJitter()),
		}
		d.mu.Unlock()
		return name, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (d *MemberDirectory) ttlWithJitter() time.Duration {
	if d.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(d.ttl) / 10
	return d.ttl + time.Duration(d.rnd.Int63n(jitterMax+1))
}

// StaticMemberSource serves names from a fixed map (tests/demos).
type StaticMemberSource struct {
	names map[string]string
}

func NewStaticMemberSource(names map[string]string) *StaticMemberSource {
	if names == nil {
		names = make(map[string]string)
	}
	return &StaticMemberSource{names: names}
}

func (s *StaticMemberSource) LookupMember(_ context.Context, userID string) (string, error) {
	if name, ok := s.names[userID]; ok {
		return name, nil
	}
	return "", fmt.Errorf("member %s not found", userID)
}
