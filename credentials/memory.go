package credentials

import "sync"

var _ Backend = (*MemoryBackend)(nil)

// MemoryBackend is the ephemeral scope: values live only as long as the
// process, the Go analogue of per-session browser storage.
type MemoryBackend struct {
	values map[string]string
	lock   sync.RWMutex
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (b *MemoryBackend) Get(key string) (string, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	v, ok := b.values[key]
	return v, ok
}

func (b *MemoryBackend) Set(key, value string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.values[key] = value
	return nil
}

func (b *MemoryBackend) Delete(key string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	delete(b.values, key)
	return nil
}
