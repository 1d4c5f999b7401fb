package pipeline

import (
	"context"

	"github.com/nao1215/proxysort/internal/model"
	"golang.org/x/sync/errgroup"
)

// Resolver resolves the host of a link. *resolve.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, link string) model.Resolution
}

// DefaultConcurrency is the number of lookups run ahead of classification.
const DefaultConcurrency = 8

// prefetcher resolves links concurrently and hands results out in link order.
type prefetcher struct {
	slots  []chan model.Resolution
	cancel context.CancelFunc
	done   chan struct{}
}

// newPrefetcher starts resolving links with at most concurrency lookups in
// flight. Results are buffered per link, so the consumer never blocks the
// lookups.
func newPrefetcher(ctx context.Context, r Resolver, links []string, concurrency int) *prefetcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	ctx, cancel := context.WithCancel(ctx)
	pf := &prefetcher{
		slots:  make([]chan model.Resolution, len(links)),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	for i := range pf.slots {
		pf.slots[i] = make(chan model.Resolution, 1)
	}

	go func() {
		defer close(pf.done)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for i, link := range links {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				pf.slots[i] <- r.Resolve(gctx, link)
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // only cancellation errors; the consumer sees ctx
	}()

	return pf
}

// next waits for the resolution of link i.
func (pf *prefetcher) next(ctx context.Context, i int) (model.Resolution, error) {
	select {
	case res := <-pf.slots[i]:
		return res, nil
	case <-ctx.Done():
		return model.Resolution{}, ctx.Err()
	}
}

// close stops outstanding lookups and waits for them to return.
func (pf *prefetcher) close() {
	pf.cancel()
	<-pf.done
}
