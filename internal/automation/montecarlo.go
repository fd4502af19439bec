// Package automation runs randomized batches of a scenario to check how a
// gain set holds up when agent masses and excitation amplitudes drift.
package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/go-logr/logr"

	"github.com/san-kum/velctl/internal/config"
	"github.com/san-kum/velctl/internal/sim"
)

type MonteCarloConfig struct {
	Trials int
	// Perturbation is the relative half-width of the uniform scaling applied
	// to every mass and amplitude.
	Perturbation float64
	// SaturationLimit marks a trial as saturated when any agent's
	// force_saturation fraction exceeds it.
	SaturationLimit float64
	Seed            int64
}

type MonteCarloResult struct {
	TrialID   int
	Masses    map[string]float64
	Metrics   map[string]map[string]float64
	Saturated bool
}

// RunMonteCarlo runs cfg once per trial with perturbed agents. The runner's
// metrics must include force_saturation for the saturation flag to be set.
func RunMonteCarlo(ctx context.Context, log logr.Logger, r *sim.Runner, cfg *config.Config, mc MonteCarloConfig) ([]MonteCarloResult, error) {
	if mc.Trials <= 0 {
		return nil, fmt.Errorf("%w: trials must be positive", config.ErrInvalidScenario)
	}
	if mc.Perturbation < 0 || mc.Perturbation >= 1 {
		return nil, fmt.Errorf("%w: perturbation must be in [0, 1)", config.ErrInvalidScenario)
	}

	seed := mc.Seed
	if seed == 0 {
		seed = cfg.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	results := make([]MonteCarloResult, 0, mc.Trials)
	for trial := 0; trial < mc.Trials; trial++ {
		trialCfg := perturb(cfg, rng, mc.Perturbation)
		trialCfg.Name = fmt.Sprintf("%s~%d", cfg.Name, trial)

		res, err := r.Run(ctx, trialCfg, nil)
		if err != nil {
			return results, fmt.Errorf("trial %d: %w", trial, err)
		}

		out := MonteCarloResult{
			TrialID: trial,
			Masses:  make(map[string]float64, len(trialCfg.Agents)),
			Metrics: res.Metrics,
		}
		for _, a := range trialCfg.Agents {
			out.Masses[a.Name] = a.Mass
			if res.Metrics[a.Name]["force_saturation"] > mc.SaturationLimit {
				out.Saturated = true
			}
		}
		results = append(results, out)

		if (trial+1)%10 == 0 {
			log.V(1).Info("monte carlo progress", "done", trial+1, "trials", mc.Trials)
		}
	}

	log.Info("monte carlo finished", "scenario", cfg.Name, "trials", mc.Trials, "seed", seed)
	return results, nil
}

// perturb returns a deep copy of cfg with masses and profile amplitudes
// scaled by independent factors in [1-p, 1+p].
func perturb(cfg *config.Config, rng *rand.Rand, p float64) *config.Config {
	out := *cfg
	out.Agents = make([]config.AgentConfig, len(cfg.Agents))
	scale := func() float64 { return 1 + (rng.Float64()*2-1)*p }

	for i, a := range cfg.Agents {
		a.Mass *= scale()
		a.Desired = scaleProfile(a.Desired, scale())
		a.Velocity = scaleProfile(a.Velocity, scale())
		out.Agents[i] = a
	}
	return &out
}

func scaleProfile(p config.Profile, s float64) config.Profile {
	amp := make([]float64, len(p.Amplitude))
	for k, v := range p.Amplitude {
		amp[k] = v * s
	}
	p.Amplitude = amp
	return p
}

type MetricStats struct {
	Mean, Std, Min, Max float64
}

// Stats summarizes one metric of one agent across trials.
func Stats(results []MonteCarloResult, agentName, metric string) MetricStats {
	st := MetricStats{Min: math.Inf(1), Max: math.Inf(-1)}
	n := 0
	for _, r := range results {
		v, ok := r.Metrics[agentName][metric]
		if !ok {
			continue
		}
		n++
		st.Mean += v
		st.Min = min(st.Min, v)
		st.Max = max(st.Max, v)
	}
	if n == 0 {
		return MetricStats{}
	}
	st.Mean /= float64(n)
	for _, r := range results {
		if v, ok := r.Metrics[agentName][metric]; ok {
			st.Std += (v - st.Mean) * (v - st.Mean)
		}
	}
	st.Std = math.Sqrt(st.Std / float64(n))
	return st
}

func SaturatedCount(results []MonteCarloResult) (saturated, clean int) {
	for _, r := range results {
		if r.Saturated {
			saturated++
		} else {
			clean++
		}
	}
	return
}
