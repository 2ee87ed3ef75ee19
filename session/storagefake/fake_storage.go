package storagefake

import (
	"sync"

	"github.com/Bigfish4tim/km-portal-client/session"
)

var _ session.Storage = (*FakeStorage)(nil)

// FakeStorage is an in-memory session.Storage for tests. Error fields can be
// set to make individual operations fail.
type FakeStorage struct {
	lock   sync.RWMutex
	values map[string]string

	LoadErr  error
	SaveErr  error
	ClearErr error
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{
		values: make(map[string]string),
	}
}

func (f *FakeStorage) Load() (map[string]string, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	if f.LoadErr != nil {
		return nil, f.LoadErr
	}
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out, nil
}

func (f *FakeStorage) Save(values map[string]string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.values = make(map[string]string, len(values))
	for k, v := range values {
		f.values[k] = v
	}
	return nil
}

func (f *FakeStorage) Clear() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.values = make(map[string]string)
	return nil
}

// Set seeds a single key, bypassing the atomic-group contract. Tests use it
// to fabricate partial or corrupted persisted state.
func (f *FakeStorage) Set(key, value string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.values[key] = value
}

// Snapshot returns a copy of the stored values for assertions.
func (f *FakeStorage) Snapshot() map[string]string {
	f.lock.RLock()
	defer f.lock.RUnlock()
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}
