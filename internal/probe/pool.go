package probe

import (
	"context"
	"strconv"
	"sync"

	"github.com/okian/pdwatch/pkg/logger"
)

// pool runs jobs on a fixed set of named workers fed by one channel.
type pool struct {
	size   int
	logger logger.Logger
}

func newPool(size int, log logger.Logger) *pool {
	return &pool{size: size, logger: log.Named("worker-pool")}
}

// run executes fn for every job and returns the errors keyed by job index.
// It stops handing out jobs once ctx is done.
func (p *pool) run(ctx context.Context, jobs []job, fn func(context.Context, job) error) map[int]error {
	type indexed struct {
		i int
		j job
	}
	ch := make(chan indexed, p.size*2)
	var (
		mu   sync.Mutex
		errs = make(map[int]error)
		wg   sync.WaitGroup
	)

	for w := range p.size {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			log := p.logger.Named(name)
			for it := range ch {
				if err := fn(ctx, it.j); err != nil {
					log.Debug(ctx, "job failed", logger.String("job", it.j.name), logger.Error(err))
					mu.Lock()
					errs[it.i] = err
					mu.Unlock()
				}
			}
		}("worker-" + strconv.Itoa(w))
	}

	func() {
		defer close(ch)
		for i, j := range jobs {
			select {
			case <-ctx.Done():
				return
			case ch <- indexed{i: i, j: j}:
			}
		}
	}()
	wg.Wait()
	return errs
}
