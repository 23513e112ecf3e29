package source

import (
	"context"
	"sync"

	"github.com/okian/starsync/internal/domain/model"
	"github.com/okian/starsync/pkg/logger"
)

// fetchPlanets fetches every URL once with up to c.workers concurrent
// requests. Results are indexed by input position, so the output order is the
// input order regardless of completion order. The first error cancels the
// remaining fetches and is returned.
func (c *Client) fetchPlanets(ctx context.Context, urls []string) ([]model.Planet, error) {
	planets := make([]model.Planet, len(urls))

	if c.workers <= 1 || len(urls) <= 1 {
		for i, u := range urls {
			p, err := c.FetchPlanet(ctx, u)
			if err != nil {
				return nil, err
			}
			planets[i] = p
		}
		return planets, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	workers := min(c.workers, len(urls))
	jobs := make(chan int, workers)

	c.logger.Debug(ctx, "fetching homeworlds",
		logger.Int("count", len(urls)),
		logger.Int("workers", workers),
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				p, err := c.FetchPlanet(ctx, urls[i])
				if err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
					continue
				}
				planets[i] = p
			}
		}()
	}

feed:
	for i := range urls {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return planets, nil
}
