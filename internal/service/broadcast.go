package service

import (
	"sync"

	"github.com/google/uuid"
	"github.com/trialconnect/agent/internal/domain"
)

// Broadcaster fans the cross-component login signal out to subscribers.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string]chan domain.UserRecord
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]chan domain.UserRecord)}
}

// Subscribe registers a listener and returns its id and channel.
func (b *Broadcaster) Subscribe() (string, <-chan domain.UserRecord) {
	id := uuid.New().String()
	ch := make(chan domain.UserRecord, 1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}

// LoginCompleted notifies all subscribers that a session became valid.
// The callback flow gates this on email verification; explicit profile
// completion does not. That asymmetry matches the observed behavior and
// is deliberate here.
//
// Sends are non-blocking: a subscriber that has not drained its channel
// misses the signal rather than stalling the flow.
func (b *Broadcaster) LoginCompleted(user domain.UserRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- user:
		default:
		}
	}
}
