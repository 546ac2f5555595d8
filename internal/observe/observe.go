// Package observe keeps ordered lists of change subscribers for the session
// store and the view controllers.
package observe

import "sync"

// List is an ordered set of subscribers. The zero value is ready to use and
// safe for concurrent use.
type List[T any] struct {
	mutex  sync.Mutex
	nextID uint64
	subs   []entry[T]
}

type entry[T any] struct {
	id uint64
	fn func(T)
}

// Subscribe appends fn and returns a function that removes it. Calling the
// returned function more than once has no further effect.
func (l *List[T]) Subscribe(fn func(T)) func() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, entry[T]{id: id, fn: fn})

	var once sync.Once

	return func() {
		once.Do(func() {
			l.remove(id)
		})
	}
}

func (l *List[T]) remove(id uint64) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for i, sub := range l.subs {
		if sub.id == id {
			l.subs = append(l.subs[:i:i], l.subs[i+1:]...)

			return
		}
	}
}

// Notify calls every subscriber with value, in subscription order, on the
// calling goroutine. The list's lock is not held during the calls, so a
// subscriber may subscribe or unsubscribe.
func (l *List[T]) Notify(value T) {
	l.mutex.Lock()
	fns := make([]func(T), 0, len(l.subs))

	for _, sub := range l.subs {
		fns = append(fns, sub.fn)
	}
	l.mutex.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

// Len returns the number of subscribers.
func (l *List[T]) Len() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return len(l.subs)
}
