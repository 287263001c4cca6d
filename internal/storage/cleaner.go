package storage

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Cleaner deletes aged artifacts on a fixed interval.
type Cleaner struct {
	store    *Store
	interval time.Duration
	maxAge   time.Duration
	log      *logrus.Logger
}

// NewCleaner creates a cleaner that removes artifacts older than maxAge
// every interval.
func NewCleaner(store *Store, interval, maxAge time.Duration, log *logrus.Logger) *Cleaner {
	return &Cleaner{
		store:    store,
		interval: interval,
		maxAge:   maxAge,
		log:      log,
	}
}

// Run blocks, sweeping the store until the context is cancelled.
// Callers start it on its own goroutine.
func (c *Cleaner) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := c.store.Cleanup(c.maxAge)
			if err != nil {
				c.log.WithError(err).Warn("artifact cleanup failed")
				continue
			}
			if removed > 0 {
				c.log.WithField("removed", removed).Info("cleaned up aged artifacts")
			}
		}
	}
}
