// Package lock serializa operações sobre a mesma chave (um motorista) sem
// bloquear chaves diferentes.
package lock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Keyed é um conjunto de mutexes indexados por chave. A entrada de uma chave
// é descartada quando ninguém mais a segura ou espera por ela.
type Keyed struct {
	mu      sync.Mutex
	entries map[uint]*entry
}

func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[uint]*entry)}
}

// Lock bloqueia a chave e devolve a função que a libera.
func (k *Keyed) Lock(key uint) (unlock func()) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
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
				delete(k.entries, key)
			}
			k.mu.Unlock()
		})
	}
}

// Len devolve quantas chaves estão em uso.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
