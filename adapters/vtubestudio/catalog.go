package vtubestudio

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
)

// FetchHotkeys queries the host for the hotkeys of the current model
type FetchHotkeys func(ctx context.Context) ([]Hotkey, error)

// HotkeyCatalog caches hotkey name -> host-assigned id for expression toggles
type HotkeyCatalog struct {
	mu     sync.RWMutex
	ids    map[string]string
	fetch  FetchHotkeys
	logger *zap.Logger
}

// NewHotkeyCatalog creates an empty catalog backed by fetch
func NewHotkeyCatalog(fetch FetchHotkeys, logger *zap.Logger) *HotkeyCatalog {
	return &HotkeyCatalog{
		ids:    make(map[string]string),
		fetch:  fetch,
		logger: logger,
	}
}

// Refresh replaces the cache with the host's current expression toggles.
// On error the cache is left untouched.
func (c *HotkeyCatalog) Refresh(ctx context.Context) error {
	hotkeys, err := c.fetch(ctx)
	if err != nil {
		return err
	}

	ids := make(map[string]string, len(hotkeys))
	for _, h := range hotkeys {
		name := strings.TrimSpace(h.Name)
		if name == "" || h.HotkeyID == "" || h.Type != HotkeyTypeToggleExpression {
			continue
		}
		ids[name] = h.HotkeyID
	}

	c.mu.Lock()
	c.ids = ids
	c.mu.Unlock()

	c.logger.Debug("Loaded expression hotkeys",
		zap.Int("count", len(ids)),
		zap.Strings("names", c.Names()))
	return nil
}

// Resolve returns the id for name. A cache miss triggers exactly one refresh.
// A host rejection during that refresh counts as a miss; transport errors are returned.
func (c *HotkeyCatalog) Resolve(ctx context.Context, name string) (string, bool, error) {
	if id, ok := c.Lookup(name); ok {
		return id, true, nil
	}

	if err := c.Refresh(ctx); err != nil {
		if errors.Is(err, domain.ErrHostRejected) {
			c.logger.Warn("Hotkey list rejected by avatar host", zap.String("hotkey", name), zap.Error(err))
			return "", false, nil
		}
		return "", false, err
	}

	id, ok := c.Lookup(name)
	return id, ok, nil
}

// Lookup checks the cache only
func (c *HotkeyCatalog) Lookup(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[name]
	return id, ok
}

// Len returns the number of cached hotkeys
func (c *HotkeyCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}

// Names returns the cached hotkey names in sorted order
func (c *HotkeyCatalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.ids))
	for name := range c.ids {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset empties the cache
func (c *HotkeyCatalog) Reset() {
	c.mu.Lock()
	c.ids = make(map[string]string)
	c.mu.Unlock()
}
