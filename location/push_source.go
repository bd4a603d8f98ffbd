package location

import (
	"context"
	"sync"
)

// PushSource is a Source fed externally, typically by HTTP location pings
// from a client device. It keeps at most one active watch; a new Watch
// replaces the previous delivery channel.
type PushSource struct {
	mu sync.Mutex
	ch chan Update
}

func NewPushSource() *PushSource {
	return &PushSource{}
}

// Watch starts a new delivery channel. The channel stops receiving once ctx
// is cancelled or a later Watch replaces it.
func (s *PushSource) Watch(ctx context.Context, _ WatchOptions) (<-chan Update, error) {
	ch := make(chan Update, 16)

	s.mu.Lock()
	s.ch = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if s.ch == ch {
			s.ch = nil
		}
		s.mu.Unlock()
	}()

	return ch, nil
}

// Push delivers a sample to the active watcher, if any.
func (s *PushSource) Push(sample Sample) {
	s.deliver(Update{Sample: &sample})
}

// Fail delivers a positioning error to the active watcher, if any.
func (s *PushSource) Fail(err error) {
	s.deliver(Update{Err: err})
}

// deliver is non-blocking: when the watcher is not keeping up, the oldest
// pending update is dropped. The tracker only trusts the most recently
// delivered fix, so dropping backlog is safe.
func (s *PushSource) deliver(u Update) {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()
	if ch == nil {
		return
	}
	for {
		select {
		case ch <- u:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
