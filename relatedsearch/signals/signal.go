package signals

import (
	"reflect"
	"slices"
	"sync"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/disposable"
)

type Observer[E any] func(E)

// Signal fans an event out to its observers. An observer is identified by the optional
// observerID, or by its function pointer when none is given.
type Signal[E any] interface {
	Attach(observer Observer[E], observerID ...any) disposable.Disposable
	Detach(observer Observer[E], observerID ...any)
	Notify(event E)
}

type subscription[E any] struct {
	key      any
	observer Observer[E]
}

// Emitter is the Signal sessions expose. Observers run synchronously in attach order;
// attaching a key twice keeps the first observer.
type Emitter[E any] struct {
	mu   sync.RWMutex
	subs []subscription[E]
}

func NewSignal[E any]() *Emitter[E] {
	return &Emitter[E]{}
}

func (s *Emitter[E]) Attach(observer Observer[E], observerID ...any) disposable.Disposable {
	key := observerKey(observer, observerID)

	s.mu.Lock()
	if s.find(key) < 0 {
		s.subs = append(s.subs, subscription[E]{key: key, observer: observer})
	}
	s.mu.Unlock()

	return disposable.NewDisposable(func() { s.Detach(observer, key) })
}

func (s *Emitter[E]) Detach(observer Observer[E], observerID ...any) {
	key := observerKey(observer, observerID)

	s.mu.Lock()
	if i := s.find(key); i >= 0 {
		s.subs = slices.Delete(s.subs, i, i+1)
	}
	s.mu.Unlock()
}

// Notify works on a snapshot, so observers may detach themselves.
func (s *Emitter[E]) Notify(event E) {
	s.mu.RLock()
	subs := slices.Clone(s.subs)
	s.mu.RUnlock()

	for _, sub := range subs {
		sub.observer(event)
	}
}

func (s *Emitter[E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Emitter[E]) find(key any) int {
	return slices.IndexFunc(s.subs, func(sub subscription[E]) bool { return sub.key == key })
}

func observerKey[E any](observer Observer[E], observerID []any) any {
	if len(observerID) > 0 {
		return observerID[0]
	}
	return reflect.ValueOf(observer).Pointer()
}
