// Package neural provides a concrete evaluator.Evaluator backed by a small
// dual-headed residual convolutional network, built on the teacher's
// (Elvenson-alphabeth/dualnet) tensor stack: gorgonia, tensor, vecf32 and
// math32. Per SPEC_FULL.md §4.5's Non-goals boundary, only the forward pass
// is implemented here — no training loop, no checkpoint save/load.
package neural

import "github.com/jgslunde/brandubh-az/movecodec"

// Width, Height and Features are fixed by the external ABI (SPEC_FULL.md
// §6): a 7x7 board encoded into 4 planes.
const (
	Width    = 7
	Height   = 7
	Features = 4
)

// ActionSpace is the policy head's output width, fixed by movecodec.
const ActionSpace = movecodec.Size

// Config configures the network, trimmed from the teacher's dualnet.Config
// to this domain's fixed board size and action space.
type Config struct {
	K            int // number of convolution filters in the shared trunk
	SharedLayers int // number of residual blocks
	FC           int // value head's hidden fully-connected width
	Seed         int64
}

// DefaultConfig returns a small network sized for a 7x7 board: the teacher's
// DefaultConf used K = round((m*n)/3); Brandubh's 49 squares round to the
// same power-of-two-ish heuristic.
func DefaultConfig() Config {
	return Config{
		K:            16,
		SharedLayers: 3,
		FC:           32,
		Seed:         1,
	}
}

// IsValid mirrors dualnet.Config.IsValid's shape of checks.
func (c Config) IsValid() bool {
	return c.K >= 1 && c.SharedLayers >= 0 && c.FC > 1
}
