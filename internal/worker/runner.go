package worker

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Gunvolt24/storefront-sync/internal/ports"
)

// Runner — набор воркеров; первая ошибка отменяет остальных.
type Runner struct {
	workers []Worker
	log     ports.Logger
}

func NewRunner(log ports.Logger, workers ...Worker) *Runner {
	return &Runner{workers: workers, log: log}
}

// Run — запускает воркеры параллельно и ждёт завершения всех.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range r.workers {
		r.log.Infof(ctx, "worker started name=%s", w.Name())
		g.Go(func() error {
			err := w.Run(ctx)
			if err != nil {
				r.log.Errorf(ctx, "worker stopped name=%s err=%v", w.Name(), err)
			}
			return err
		})
	}
	return g.Wait()
}
