package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/velctl/internal/config"
)

// Sweep runs one scenario once per controller setting, in parallel. Each run
// overrides the scenario-wide controller; per-agent overrides still apply.
type Sweep struct {
	base     *Runner
	settings []config.ControllerConfig
}

func NewSweep(r *Runner, settings []config.ControllerConfig) *Sweep {
	return &Sweep{base: r, settings: settings}
}

func (s *Sweep) Run(ctx context.Context, cfg *config.Config) ([]*Result, error) {
	results := make([]*Result, len(s.settings))
	errs := make([]error, len(s.settings))

	var wg sync.WaitGroup
	for i := range s.settings {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := *cfg
			cfgCopy.Controller = s.settings[idx]
			cfgCopy.Name = fmt.Sprintf("%s#%d", cfg.Name, idx)

			r := New(s.base.log.WithValues("sweep", idx))
			r.metrics = s.base.metrics

			results[idx], errs[idx] = r.Run(ctx, &cfgCopy, nil)
		}(i)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("setting %d: %w", i, err)
		}
	}

	return results, nil
}
