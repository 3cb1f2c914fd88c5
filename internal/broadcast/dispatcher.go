// Package broadcast fans one announcement out to every registered user.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-catalog-bot/internal/gateway"
)

// UserLister reads the user registry.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
}

// Sender delivers a direct text message.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Result summarises one broadcast.  Delivered counts sends the gateway
// accepted, not messages a human has read.
type Result struct {
	Total     int
	Delivered int
	Failed    int
}

// Dispatcher sends broadcasts with bounded parallelism.
type Dispatcher struct {
	users       UserLister
	sender      Sender
	concurrency int
	log         zerolog.Logger
}

func NewDispatcher(users UserLister, sender Sender, concurrency int, log zerolog.Logger) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{users: users, sender: sender, concurrency: concurrency, log: log}
}

// Broadcast sends text to every registered user.  A failed send is logged
// and skipped; it never stops the others.  The only returned error is a
// failure to read the registry.
func (d *Dispatcher) Broadcast(ctx context.Context, text string) (Result, error) {
	ids, err := d.users.ListUserIDs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list users: %w", err)
	}
	start := time.Now()

	var delivered, unavailable atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := d.sender.SendText(ctx, id, text); err != nil {
				ev := d.log.Debug()
				if errors.Is(err, gateway.ErrRecipientUnavailable) {
					unavailable.Add(1)
				} else {
					ev = d.log.Warn()
				}
				ev.Err(err).Int64("user_id", id).Msg("broadcast send failed")
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Total: len(ids), Delivered: int(delivered.Load())}
	res.Failed = res.Total - res.Delivered
	d.log.Info().
		Int("total", res.Total).
		Int("delivered", res.Delivered).
		Int("failed", res.Failed).
		Int64("unavailable", unavailable.Load()).
		Dur("took", time.Since(start)).
		Msg("broadcast finished")
	return res, nil
}
