package settings

import (
	"context"
	"errors"
	"sync"

	"salon-notification-service/internal/db"
	"salon-notification-service/internal/models"
)

type store interface {
	GetSalonSettings(ctx context.Context) (models.SalonSettings, error)
}

// Cache holds a process-wide snapshot of the salon settings. The snapshot is
// loaded lazily on first use and reused until Refresh is called; approval is a
// low-churn toggle and a per-enqueue lookup is not worth it.
type Cache struct {
	store store

	mu     sync.Mutex
	loaded bool
	snap   models.SalonSettings
}

func NewCache(store store) *Cache {
	return &Cache{store: store}
}

// Snapshot returns the cached settings, loading them on first call. A missing
// settings row yields the defaults (approval required, so nothing auto-sends).
func (c *Cache) Snapshot(ctx context.Context) (models.SalonSettings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.snap, nil
	}
	return c.load(ctx)
}

// Refresh discards the cached snapshot and reloads it from the store.
func (c *Cache) Refresh(ctx context.Context) (models.SalonSettings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	return c.load(ctx)
}

// load fetches under c.mu.
func (c *Cache) load(ctx context.Context) (models.SalonSettings, error) {
	snap, err := c.store.GetSalonSettings(ctx)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			snap = models.DefaultSalonSettings()
		} else {
			return models.SalonSettings{}, err
		}
	}
	c.snap = snap
	c.loaded = true
	return snap, nil
}
