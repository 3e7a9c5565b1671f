package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"live-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const backboneChannel = "chat_events"

// Subscriber is a group member handle. Enqueue must not block; it reports
// false when the member can no longer keep up, at which point the registry
// drops it.
type Subscriber interface {
	Enqueue(event []byte) bool
	Shutdown()
}

// Registry maps a group name to the set of currently subscribed members and
// fans events out to them. Membership is in-memory only; when a Redis client
// is provided, broadcasts are additionally relayed to other instances over
// pub/sub so a cluster shares one backbone.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]map[Subscriber]struct{}

	// Redis connection for cross-instance fan-out, may be nil
	rdb *redis.Client

	// instanceId discriminates our own relayed messages from other instances'
	instanceId string

	logger logger.ILogger
}

type backbonePayload struct {
	Origin string          `json:"origin"`
	Group  string          `json:"group"`
	Event  json.RawMessage `json:"event"`
}

func NewRegistry(rdb *redis.Client, log logger.ILogger) *Registry {
	return &Registry{
		groups:     make(map[string]map[Subscriber]struct{}),
		rdb:        rdb,
		instanceId: uuid.NewString(),
		logger:     log,
	}
}

// Join adds the member to the named group, creating the group lazily.
// Joining twice is a no-op.
func (r *Registry) Join(group string, s Subscriber) {
	r.mu.Lock()
	members, ok := r.groups[group]
	if !ok {
		members = make(map[Subscriber]struct{})
		r.groups[group] = members
	}
	members[s] = struct{}{}
	r.mu.Unlock()

	r.logger.Info("Registry", "Member joined group", map[string]interface{}{"group": group, "members": r.GroupSize(group)})
}

// Leave removes the member. Leaving a group the member never joined is a
// no-op. Empty groups are discarded.
func (r *Registry) Leave(group string, s Subscriber) {
	r.mu.Lock()
	if members, ok := r.groups[group]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(r.groups, group)
		}
	}
	r.mu.Unlock()

	r.logger.Info("Registry", "Member left group", map[string]interface{}{"group": group})
}

// GroupSize returns the current number of members in the group.
func (r *Registry) GroupSize(group string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups[group])
}

// Broadcast delivers the event to every member of the group at the moment of
// the call, then relays it to other instances when a backbone is configured.
// Delivery to a single member preserves send order; no ordering is defined
// across members.
func (r *Registry) Broadcast(group string, event []byte) {
	r.deliverLocal(group, event)

	if r.rdb != nil {
		payload, err := json.Marshal(backbonePayload{
			Origin: r.instanceId,
			Group:  group,
			Event:  event,
		})
		if err != nil {
			r.logger.Error("Registry", "Failed to marshal backbone payload", map[string]interface{}{"error": err.Error()})
			return
		}
		if err := r.rdb.Publish(context.Background(), backboneChannel, payload).Err(); err != nil {
			r.logger.Warn("Registry", "Failed to publish to backbone", map[string]interface{}{"error": err.Error(), "group": group})
		}
	}
}

func (r *Registry) deliverLocal(group string, event []byte) {
	r.mu.RLock()
	members := make([]Subscriber, 0, len(r.groups[group]))
	for s := range r.groups[group] {
		members = append(members, s)
	}
	r.mu.RUnlock()

	var stale []Subscriber
	for _, s := range members {
		if !s.Enqueue(event) {
			stale = append(stale, s)
		}
	}

	// A member whose buffer is full is dropped rather than allowed to stall
	// the whole group.
	for _, s := range stale {
		r.logger.Warn("Registry", "Member send buffer full, dropping member", map[string]interface{}{"group": group})
		r.Leave(group, s)
		s.Shutdown()
	}
}

// Run consumes the Redis backbone and replays remote broadcasts to local
// members. It returns when the context is cancelled, and immediately when no
// backbone is configured.
func (r *Registry) Run(ctx context.Context) {
	if r.rdb == nil {
		return
	}

	pubsub := r.rdb.Subscribe(ctx, backboneChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload backbonePayload
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				r.logger.Warn("Registry", "Backbone message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			// Skip our own relays; local members already got the event.
			if payload.Origin == r.instanceId {
				continue
			}
			r.deliverLocal(payload.Group, payload.Event)
		case <-ctx.Done():
			return
		}
	}
}
