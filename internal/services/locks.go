// Package services – scoped exclusive sections.
//
// Turns for the same caller must not interleave: the history append and
// the profile read-modify-write are not atomic across store calls, so the
// pipeline holds a per-key mutex for its full duration. Keys are
// lowercased identity tokens, so turns for distinct callers proceed in
// parallel while all of one caller's conversations share the section.
package services

import "sync"

// keyedMutex provides one mutex per string key. Entries are reference
// counted and removed when the last holder releases, so the map stays
// bounded by the number of concurrently locked keys.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*lockEntry)}
}

// Lock acquires the mutex for key and returns its release function. The
// release function must be called exactly once, on every exit path.
func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}
