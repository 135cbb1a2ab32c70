package services

import (
	"sync"
	"time"
)

// AwardEvent is pushed to subscribers whenever the ledger credits XP.
type AwardEvent struct {
	ExternalUserID string    `json:"external_user_id"`
	Kind           string    `json:"kind"` // mission | perfect_day | victory | admin_grant
	MissionID      string    `json:"mission_id,omitempty"`
	XPEarned       int64     `json:"xp_earned"`
	TotalXP        int64     `json:"total_xp"`
	Level          int       `json:"level"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// AwardNotifier fans award events out to in-process subscribers, keyed by
// user. Publishing never blocks: a subscriber that falls behind drops events
// rather than stalling the award path.
type AwardNotifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan AwardEvent
}

func NewAwardNotifier() *AwardNotifier {
	return &AwardNotifier{subs: make(map[string]map[int]chan AwardEvent)}
}

// Subscribe registers for a user's award events. The returned cancel func
// must be called to release the channel.
func (n *AwardNotifier) Subscribe(externalUserID string) (<-chan AwardEvent, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	ch := make(chan AwardEvent, 16)

	if n.subs[externalUserID] == nil {
		n.subs[externalUserID] = make(map[int]chan AwardEvent)
	}
	n.subs[externalUserID][id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if chans, ok := n.subs[externalUserID]; ok {
			if c, ok := chans[id]; ok {
				delete(chans, id)
				close(c)
			}
			if len(chans) == 0 {
				delete(n.subs, externalUserID)
			}
		}
	}
	return ch, cancel
}

// Publish delivers ev to the user's subscribers without blocking.
func (n *AwardNotifier) Publish(ev AwardEvent) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.subs[ev.ExternalUserID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
