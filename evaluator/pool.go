package evaluator

import (
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/jgslunde/brandubh-az/encoder"
	"github.com/jgslunde/brandubh-az/movecodec"
)

// Pool holds several named backend Evaluators — grounded on agent.go's
// `inferer chan Inferer` pool of interchangeable inference backends (neural
// model, test stub, uniform, random — SPEC_FULL.md §9). Evaluate always
// dispatches to Primary; Fallbacks exist to be swapped in by a caller (e.g.
// to `Primary` on reconfiguration) or closed together.
type Pool struct {
	Primary   Evaluator
	Fallbacks []Evaluator
}

// Evaluate implements Evaluator by delegating to Primary.
func (p *Pool) Evaluate(state [encoder.StateSize]float32) (policy [movecodec.Size]float32, value float32, err error) {
	return p.Primary.Evaluate(state)
}

// Close closes Primary and every fallback that implements io.Closer,
// aggregating failures with github.com/hashicorp/go-multierror exactly as
// Agent.Close does for its inferer pool.
func (p *Pool) Close() error {
	var result *multierror.Error
	closeIfCloser := func(e Evaluator) {
		if c, ok := e.(io.Closer); ok {
			if err := c.Close(); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	closeIfCloser(p.Primary)
	for _, fb := range p.Fallbacks {
		closeIfCloser(fb)
	}
	if result != nil {
		return result.ErrorOrNil()
	}
	return nil
}
