package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ListenPostgres relays writes made by other processes to the local
// subscribers of store. Every SQLStore write in the Postgres dialect issues
// a NOTIFY on ChangeChannel carrying the collection path.
//
// The listener runs until ctx is cancelled.
func ListenPostgres(ctx context.Context, dsn string, store *SQLStore, log *zap.Logger) error {
	listener := pq.NewListener(dsn, 10*time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Warn("change listener event", zap.Int("event", int(ev)), zap.Error(err))
			}
		})
	if err := listener.Listen(ChangeChannel); err != nil {
		_ = listener.Close()
		return fmt.Errorf("listen %s: %w", ChangeChannel, err)
	}

	go func() {
		defer listener.Close()
		ping := time.NewTicker(90 * time.Second)
		defer ping.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-listener.Notify:
				if !ok {
					return
				}
				// nil after a reconnect: notifications may have been lost
				if n == nil {
					store.PublishAll()
					continue
				}
				store.Publish(n.Extra)
			case <-ping.C:
				go func() { _ = listener.Ping() }()
			}
		}
	}()
	return nil
}
