package identity

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/winnermind/internal/docstore"
)

// StartSessionCleaner deletes expired session documents every interval
// until ctx is cancelled.
func StartSessionCleaner(
	ctx context.Context,
	store docstore.Store,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := PurgeExpiredSessions(ctx, store, time.Now())
				if err != nil {
					log.Error("failed to clean expired sessions", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("cleaned expired sessions", zap.Int("removed", removed))
				}
			}
		}
	}()
}

// PurgeExpiredSessions deletes the sessions that expired before now and
// returns how many were removed.
func PurgeExpiredSessions(ctx context.Context, store docstore.Store, now time.Time) (int, error) {
	docs, err := store.Query(ctx, docstore.Collection(sessionsCollection))
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, d := range docs {
		if d.Fields.Time("expiresAt").After(now) {
			continue
		}
		if err := store.Delete(ctx, d.Path); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				continue
			}
			return removed, err
		}
		removed++
	}
	return removed, nil
}
