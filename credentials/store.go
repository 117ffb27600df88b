package credentials

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Pair is the access/refresh token pair issued by the academy backend.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Store is the only place credentials are read from or written to.
type Store interface {
	Get() Pair
	Set(Pair)
	Clear()
}

type Memory struct {
	mu   sync.RWMutex
	pair Pair
}

func NewMemory(pair Pair) *Memory {
	return &Memory{pair: pair}
}

func (m *Memory) Get() Pair {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair
}

func (m *Memory) Set(pair Pair) {
	m.mu.Lock()
	m.pair = pair
	m.mu.Unlock()
}

func (m *Memory) Clear() {
	m.Set(Pair{})
}

// File keeps the pair in a JSON file readable only by the current user.
// Write failures are reported through OnError since Store.Set has no
// error return.
type File struct {
	Path    string
	OnError func(error)

	mu     sync.Mutex
	loaded bool
	pair   Pair
}

func NewFile(path string) *File {
	return &File{Path: path}
}

func (f *File) Get() Pair {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		pair, err := f.read()
		if err != nil {
			f.report(err)
		}
		f.pair = pair
		f.loaded = true
	}
	return f.pair
}

func (f *File) Set(pair Pair) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pair = pair
	f.loaded = true
	if err := f.write(pair); err != nil {
		f.report(err)
	}
}

func (f *File) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pair = Pair{}
	f.loaded = true
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		f.report(errors.Wrap(err, "failed removing credentials file"))
	}
}

func (f *File) read() (Pair, error) {
	var pair Pair
	b, err := ioutil.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return pair, nil
		}
		return pair, errors.Wrap(err, "failed reading credentials file")
	}
	if err := json.Unmarshal(b, &pair); err != nil {
		return Pair{}, errors.Wrap(err, "failed unmarshaling credentials file")
	}
	return pair, nil
}

func (f *File) write(pair Pair) error {
	b, err := json.Marshal(pair)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0700); err != nil {
		return errors.Wrap(err, "failed creating credentials dir")
	}
	tmp := f.Path + ".tmp"
	if err := ioutil.WriteFile(tmp, b, 0600); err != nil {
		return errors.Wrap(err, "failed writing credentials file")
	}
	return errors.Wrap(os.Rename(tmp, f.Path), "failed replacing credentials file")
}

func (f *File) report(err error) {
	if f.OnError != nil {
		f.OnError(err)
	}
}
