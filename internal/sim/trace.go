package sim

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/velctl/internal/agent"
)

var ErrBadTrace = errors.New("sim: malformed velocity trace")

type traceSample struct {
	agent    string
	env      int
	desired  []float64
	velocity []float64
}

// TraceSource replays velocities recorded by a host simulation. Rows are
// "tick,agent,env,d0..dN,v0..vN". Agents or envs missing from a tick keep
// their previous values.
type TraceSource struct {
	dim   int
	ticks map[int][]traceSample
}

func LoadTrace(path string, dim int) (*TraceSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTrace(f, dim)
}

func ReadTrace(r io.Reader, dim int) (*TraceSource, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3 + 2*dim
	cr.Comment = '#'

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTrace, err)
	}

	ts := &TraceSource{dim: dim, ticks: make(map[int][]traceSample)}
	for i, rec := range records {
		if i == 0 && rec[0] == "tick" {
			continue
		}

		tick, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: tick %q", ErrBadTrace, i+1, rec[0])
		}
		env, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: env %q", ErrBadTrace, i+1, rec[2])
		}

		vals := make([]float64, 2*dim)
		for j := range vals {
			vals[j], err = strconv.ParseFloat(rec[3+j], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: column %d: %v", ErrBadTrace, i+1, 4+j, err)
			}
		}

		ts.ticks[tick] = append(ts.ticks[tick], traceSample{
			agent:    rec[1],
			env:      env,
			desired:  vals[:dim],
			velocity: vals[dim:],
		})
	}

	return ts, nil
}

// Ticks returns the number of ticks covered by the trace.
func (ts *TraceSource) Ticks() int {
	n := 0
	for t := range ts.ticks {
		if t+1 > n {
			n = t + 1
		}
	}
	return n
}

func (ts *TraceSource) Fill(tick int, agents []*agent.Agent) error {
	samples := ts.ticks[tick]
	if len(samples) == 0 {
		return nil
	}

	byName := make(map[string]*agent.Agent, len(agents))
	for _, a := range agents {
		byName[a.Name] = a
	}

	for _, s := range samples {
		a, ok := byName[s.agent]
		if !ok {
			return fmt.Errorf("%w: tick %d references unknown agent %q", ErrBadTrace, tick, s.agent)
		}
		if err := a.SetDesired(s.env, s.desired); err != nil {
			return err
		}
		if err := a.SetVelocity(s.env, s.velocity); err != nil {
			return err
		}
	}
	return nil
}
