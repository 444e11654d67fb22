package process

import "sync"

// Subscription is a one-shot observation handle. A producer resolves it at
// most once; the consumer closes it when it no longer cares, which releases
// whatever the producer holds for it.
type Subscription struct {
	done    chan struct{}
	resolve sync.Once
	close   sync.Once
	onClose func()
}

// NewSubscription creates an unresolved subscription. onClose may be nil.
func NewSubscription(onClose func()) *Subscription {
	return &Subscription{
		done:    make(chan struct{}),
		onClose: onClose,
	}
}

// Done is closed when the subscription is resolved.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Resolved reports whether Resolve has been called.
func (s *Subscription) Resolved() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Resolve marks the observed condition as reached. Extra calls are ignored.
func (s *Subscription) Resolve() {
	s.resolve.Do(func() { close(s.done) })
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.close.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
	})
}
