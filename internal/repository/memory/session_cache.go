package memory

import (
	"time"

	"live-chat-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// SessionCache keeps recently resolved chat sessions keyed by room id, so a
// reconnecting client does not pay a store round-trip for a room the process
// has already seen. Entries expire on their own; the durable store stays the
// source of truth.
type SessionCache struct {
	cache *cache.Cache
}

func NewSessionCache() *SessionCache {
	// Default expiration of 1 hour, expired entries purged every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionCache{
		cache: c,
	}
}

func (r *SessionCache) Save(session *entity.ChatSession) {
	r.cache.Set(session.RoomId, session, cache.DefaultExpiration)
}

func (r *SessionCache) Get(roomId string) (*entity.ChatSession, bool) {
	if x, found := r.cache.Get(roomId); found {
		return x.(*entity.ChatSession), true
	}
	return nil, false
}

func (r *SessionCache) Delete(roomId string) {
	r.cache.Delete(roomId)
}
