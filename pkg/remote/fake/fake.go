// Package fake provides in-memory implementations of the pkg/remote
// interfaces, used by package tests and by the CLI's --demo export path
// so the pipeline is exercisable without a real backend. Grounded on
// tests/integration/sync_test.go's own-process fixture approach — the
// pack has no network-mocking framework, so hand-written fakes are the
// idiom here, not a stdlib-fallback concern.
package fake

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mirrorkit/photomirror/pkg/model"
)

// Inventory is an in-memory InventoryProvider + Downloader.
type Inventory struct {
	mu          sync.Mutex
	Collections []model.Collection
	Files       map[int64][]model.File // keyed by collection ID
	Payloads    map[int64]string       // file ID -> body
}

// NewInventory returns an empty Inventory.
func NewInventory() *Inventory {
	return &Inventory{Files: make(map[int64][]model.File), Payloads: make(map[int64]string)}
}

// AddCollection registers a collection and returns it.
func (inv *Inventory) AddCollection(id, owner int64, name string) model.Collection {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	c := model.Collection{ID: id, OwnerID: owner, Name: name}
	inv.Collections = append(inv.Collections, c)
	return c
}

// AddFile registers a file within a collection with the given body.
func (inv *Inventory) AddFile(f model.File, body string) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.Files[f.CollectionID] = append(inv.Files[f.CollectionID], f)
	inv.Payloads[f.ID] = body
}

func (inv *Inventory) ListCollections(ctx context.Context) ([]model.Collection, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]model.Collection, len(inv.Collections))
	copy(out, inv.Collections)
	return out, nil
}

func (inv *Inventory) ListFiles(ctx context.Context, collectionID int64) ([]model.File, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]model.File, len(inv.Files[collectionID]))
	copy(out, inv.Files[collectionID])
	return out, nil
}

func (inv *Inventory) Download(ctx context.Context, f model.File) (io.ReadCloser, int64, error) {
	inv.mu.Lock()
	body, ok := inv.Payloads[f.ID]
	inv.mu.Unlock()
	if !ok {
		return nil, 0, fmt.Errorf("fake: no payload for file %d", f.ID)
	}
	return io.NopCloser(strings.NewReader(body)), int64(len(body)), nil
}

// ExifUpdater is a no-op ExifUpdater that records calls for assertions.
type ExifUpdater struct {
	mu    sync.Mutex
	Calls []string
}

func (e *ExifUpdater) UpdateExif(ctx context.Context, localPath string, f model.File) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Calls = append(e.Calls, localPath)
	return nil
}

// LivePhotoDecoder splits on a fixed separator, standing in for the real
// container format.
type LivePhotoDecoder struct{}

const LiveSeparator = "\x00LIVE\x00"

func (LivePhotoDecoder) Split(ctx context.Context, r io.Reader) (io.ReadCloser, io.ReadCloser, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	parts := strings.SplitN(string(data), LiveSeparator, 2)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("fake: not a live photo payload")
	}
	return io.NopCloser(strings.NewReader(parts[0])), io.NopCloser(strings.NewReader(parts[1])), nil
}

// EventBus is an in-process, synchronous pub/sub used for tests and the
// fsnotify-fed watch command.
type EventBus struct {
	mu        sync.Mutex
	listeners map[string][]func()
}

func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[string][]func())}
}

func (b *EventBus) Subscribe(event string, fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[event] = append(b.listeners[event], fn)
	idx := len(b.listeners[event]) - 1
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.listeners[event][idx] = nil
	}
}

func (b *EventBus) Publish(event string) {
	b.mu.Lock()
	fns := append([]func(){}, b.listeners[event]...)
	b.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn()
		}
	}
}

// SettingsStore is a mutex-guarded in-memory key/value store.
type SettingsStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{data: make(map[string]string)}
}

func (s *SettingsStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *SettingsStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// CurrentUserStore always resolves to a fixed user ID.
type CurrentUserStore struct{ UserID int64 }

func (c CurrentUserStore) CurrentUserID(ctx context.Context) (int64, error) {
	return c.UserID, nil
}
