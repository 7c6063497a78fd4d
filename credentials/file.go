package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

var _ Backend = (*FileBackend)(nil)

// FileBackend is the durable scope: a JSON key-value file under the data
// folder, optionally sealed at rest with a Cipher. The file is read once at
// open and flushed on every mutation.
type FileBackend struct {
	path   string
	cipher *Cipher
	values map[string]string
	lock   sync.RWMutex
}

// FileBackendOption defines a function type to modify the FileBackend instance.
type FileBackendOption func(*FileBackend)

// WithCipher seals the backing file with the given cipher.
func WithCipher(c *Cipher) FileBackendOption {
	return func(b *FileBackend) {
		b.cipher = c
	}
}

// OpenFileBackend loads (or lazily creates) the credential file at path.
// A missing file yields an empty backend. An unreadable or undecodable file
// is an error so callers can decide whether to discard it.
func OpenFileBackend(path string, options ...FileBackendOption) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("[OpenFileBackend] path is required")
	}

	backend := &FileBackend{
		path:   path,
		values: make(map[string]string),
	}
	for _, opt := range options {
		opt(backend)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return backend, nil
		}
		return nil, errors.Wrap(err, "[OpenFileBackend] read credential file")
	}
	if len(data) == 0 {
		return backend, nil
	}

	if backend.cipher != nil {
		if data, err = backend.cipher.Open(data); err != nil {
			return nil, errors.Wrap(err, "[OpenFileBackend] unseal credential file")
		}
	}

	if err := json.Unmarshal(data, &backend.values); err != nil {
		return nil, errors.Wrap(err, "[OpenFileBackend] decode credential file")
	}
	return backend, nil
}

func (b *FileBackend) Get(key string) (string, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	v, ok := b.values[key]
	return v, ok
}

func (b *FileBackend) Set(key, value string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.values[key] = value
	return b.flush()
}

func (b *FileBackend) Delete(key string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if _, ok := b.values[key]; !ok {
		return nil
	}
	delete(b.values, key)
	return b.flush()
}

// flush writes the current values out; callers hold the write lock.
func (b *FileBackend) flush() error {
	data, err := json.Marshal(b.values)
	if err != nil {
		return errors.Wrap(err, "[FileBackend.flush] encode values")
	}

	if b.cipher != nil {
		if data, err = b.cipher.Seal(data); err != nil {
			return errors.Wrap(err, "[FileBackend.flush] seal values")
		}
	}

	dir := filepath.Dir(b.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrap(err, "[FileBackend.flush] create data folder")
		}
	}
	if err := os.WriteFile(b.path, data, 0o600); err != nil {
		return errors.Wrap(err, "[FileBackend.flush] write credential file")
	}
	return nil
}
