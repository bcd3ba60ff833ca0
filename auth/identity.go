package auth

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Identity is the signed-in principal. Values are replaced wholesale on every
// sign-in and sign-out; holders must treat them as read-only.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Provider    string `json:"provider,omitempty"`
}

// Sign-in methods recorded in Identity.Provider.
const (
	ProviderPassword  = "password"
	ProviderFederated = "federated"
)

func (i *Identity) clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

type listener struct {
	id     uuid.UUID
	fn     func(*Identity)
	active atomic.Bool
}

// notification is delivered to the listeners registered when it was raised.
type notification struct {
	identity *Identity
	targets  []*listener
}

// notifier delivers identity changes one at a time, listeners in registration order.
type notifier struct {
	mu        sync.Mutex
	listeners []*listener

	queue     chan notification
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

func newNotifier() *notifier {
	return &notifier{
		queue: make(chan notification, 32),
		done:  make(chan struct{}),
	}
}

func (n *notifier) subscribe(fn func(*Identity), current *Identity) func() {
	l := &listener{id: uuid.New(), fn: fn}
	l.active.Store(true)
	n.mu.Lock()
	n.listeners = append(n.listeners, l)
	n.mu.Unlock()

	n.enqueue(notification{identity: current, targets: []*listener{l}})

	var once sync.Once
	return func() {
		once.Do(func() {
			l.active.Store(false)
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, other := range n.listeners {
				if other.id == l.id {
					n.listeners = append(n.listeners[:i], n.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (n *notifier) publish(identity *Identity) {
	n.mu.Lock()
	targets := append([]*listener(nil), n.listeners...)
	n.mu.Unlock()
	n.enqueue(notification{identity: identity, targets: targets})
}

func (n *notifier) enqueue(note notification) {
	n.startOnce.Do(func() { go n.run() })
	select {
	case n.queue <- note:
	case <-n.done:
	}
}

func (n *notifier) run() {
	for {
		select {
		case note := <-n.queue:
			for _, l := range note.targets {
				if l.active.Load() {
					l.fn(note.identity.clone())
				}
			}
		case <-n.done:
			return
		}
	}
}

func (n *notifier) close() {
	n.closeOnce.Do(func() { close(n.done) })
}
