package neural

import (
	"strconv"

	"github.com/chewxy/math32"
	"github.com/jgslunde/brandubh-az/encoder"
	"github.com/jgslunde/brandubh-az/evaluator"
	"github.com/jgslunde/brandubh-az/movecodec"
	rng "github.com/leesper/go_rng"
	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
	"gorgonia.org/vecf32"
)

// Network is a dual-headed residual CNN: a shared convolutional trunk
// feeding a policy head (ActionSpace logits) and a value head (one scalar,
// squashed through tanh). It satisfies evaluator.Evaluator.
type Network struct {
	conf Config

	g     *gorgonia.ExprGraph
	input *gorgonia.Node
	policy *gorgonia.Node
	value  *gorgonia.Node

	vm *gorgonia.TapeMachine
}

// New only records conf; Init builds the computation graph and the
// execution machine and must be called before the first Evaluate.
func New(conf Config) *Network {
	return &Network{conf: conf}
}

// Init constructs the graph's weights and wires the forward pass. Weight
// initialization uses He/Kaiming-scaled Gaussian noise, sampled with the
// teacher's github.com/leesper/go_rng generator and scaled in place with
// gorgonia.org/vecf32, rather than gorgonia's built-in initializers — this
// keeps both of the teacher's sampling dependencies doing real work.
func (n *Network) Init() error {
	if !n.conf.IsValid() {
		return errors.New("neural: invalid config")
	}
	g := gorgonia.NewGraph()
	n.g = g

	gen := rng.NewGaussianGenerator(n.conf.Seed)

	input := gorgonia.NewTensor(g, tensor.Float32, 4,
		gorgonia.WithShape(1, Features, Height, Width), gorgonia.WithName("input"))
	n.input = input

	x, err := convBlock(g, gen, input, Features, n.conf.K, "trunk_in")
	if err != nil {
		return errors.Wrap(err, "neural: trunk input conv")
	}
	x, err = gorgonia.Rectify(x)
	if err != nil {
		return errors.Wrap(err, "neural: trunk input activation")
	}

	for i := 0; i < n.conf.SharedLayers; i++ {
		x, err = residualBlock(g, gen, x, n.conf.K, i)
		if err != nil {
			return errors.Wrapf(err, "neural: residual block %d", i)
		}
	}

	policyLogits, err := policyHead(g, gen, x, n.conf.K)
	if err != nil {
		return errors.Wrap(err, "neural: policy head")
	}
	n.policy = policyLogits

	valueScalar, err := valueHead(g, gen, x, n.conf.K, n.conf.FC)
	if err != nil {
		return errors.Wrap(err, "neural: value head")
	}
	n.value = valueScalar

	n.vm = gorgonia.NewTapeMachine(g)
	return nil
}

// Close releases the tape machine's resources.
func (n *Network) Close() error {
	if n.vm != nil {
		return n.vm.Close()
	}
	return nil
}

// Evaluate implements evaluator.Evaluator: one forward pass through the
// network for a single encoded state.
func (n *Network) Evaluate(state [encoder.StateSize]float32) (policy [movecodec.Size]float32, value float32, err error) {
	if n.vm == nil {
		return policy, 0, errors.Wrap(evaluator.ErrEvaluator, "neural: network not initialized")
	}
	backing := make([]float32, len(state))
	copy(backing, state[:])
	inputTensor := tensor.New(tensor.WithShape(1, Features, Height, Width), tensor.WithBacking(backing))

	if err := gorgonia.Let(n.input, inputTensor); err != nil {
		return policy, 0, errors.Wrap(evaluator.ErrEvaluator, "neural: binding input tensor")
	}
	defer n.vm.Reset()
	if err := n.vm.RunAll(); err != nil {
		return policy, 0, errors.Wrap(evaluator.ErrEvaluator, "neural: forward pass failed")
	}

	policyTensor, ok := n.policy.Value().(tensor.Tensor)
	if !ok {
		return policy, 0, errors.Wrap(evaluator.ErrEvaluator, "neural: policy output has unexpected type")
	}
	policyData, ok := policyTensor.Data().([]float32)
	if !ok || len(policyData) != movecodec.Size {
		return policy, 0, errors.Wrap(evaluator.ErrEvaluator, "neural: policy output has unexpected shape")
	}
	copy(policy[:], policyData)

	valueTensor, ok := n.value.Value().(tensor.Tensor)
	if !ok {
		return policy, 0, errors.Wrap(evaluator.ErrEvaluator, "neural: value output has unexpected type")
	}
	valueData, ok := valueTensor.Data().([]float32)
	if !ok || len(valueData) != 1 {
		return policy, 0, errors.Wrap(evaluator.ErrEvaluator, "neural: value output has unexpected shape")
	}
	value = valueData[0]

	if err := evaluator.CheckFinite(policy, value); err != nil {
		return policy, 0, err
	}
	return policy, value, nil
}

// heWeights samples a Gaussian(0,1) tensor of the given shape with
// go_rng and scales it in place to He/Kaiming variance with vecf32.
func heWeights(gen *rng.GaussianGenerator, fanIn int, shape ...int) *tensor.Dense {
	n := 1
	for _, s := range shape {
		n *= s
	}
	backing := make([]float32, n)
	for i := range backing {
		backing[i] = float32(gen.Gaussian(0, 1))
	}
	std := math32.Sqrt(2.0 / float32(fanIn))
	vecf32.Scale(backing, std)
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing))
}

// convBlock applies one 3x3, stride 1, same-padding convolution with
// He-initialized weights and no bias (the trunk uses plain conv+relu
// stacks rather than conv+batchnorm, since no trained checkpoint exists to
// make batch statistics meaningful).
func convBlock(g *gorgonia.ExprGraph, gen *rng.GaussianGenerator, x *gorgonia.Node, inC, outC int, name string) (*gorgonia.Node, error) {
	fanIn := inC * 3 * 3
	w := gorgonia.NewTensor(g, tensor.Float32, 4,
		gorgonia.WithShape(outC, inC, 3, 3),
		gorgonia.WithName(name+"_w"),
		gorgonia.WithValue(heWeights(gen, fanIn, outC, inC, 3, 3)))
	return gorgonia.Conv2d(x, w, tensor.Shape{3, 3}, []int{1, 1}, []int{1, 1}, []int{1, 1})
}

// residualBlock is two convBlocks with a skip connection added before the
// final activation, the standard AlphaZero trunk shape.
func residualBlock(g *gorgonia.ExprGraph, gen *rng.GaussianGenerator, x *gorgonia.Node, k, idx int) (*gorgonia.Node, error) {
	skip := x
	h, err := convBlock(g, gen, x, k, k, namef("res", idx, "a"))
	if err != nil {
		return nil, err
	}
	h, err = gorgonia.Rectify(h)
	if err != nil {
		return nil, err
	}
	h, err = convBlock(g, gen, h, k, k, namef("res", idx, "b"))
	if err != nil {
		return nil, err
	}
	h, err = gorgonia.Add(h, skip)
	if err != nil {
		return nil, err
	}
	return gorgonia.Rectify(h)
}

// policyHead reduces the trunk to two 3x3-conv planes, flattens, and maps
// them with a dense layer to raw (un-softmaxed) logits over ActionSpace.
func policyHead(g *gorgonia.ExprGraph, gen *rng.GaussianGenerator, x *gorgonia.Node, k int) (*gorgonia.Node, error) {
	const headPlanes = 2
	conv, err := convBlock(g, gen, x, k, headPlanes, "policy_conv")
	if err != nil {
		return nil, err
	}
	conv, err = gorgonia.Rectify(conv)
	if err != nil {
		return nil, err
	}
	flat, err := gorgonia.Reshape(conv, tensor.Shape{1, headPlanes * Height * Width})
	if err != nil {
		return nil, err
	}
	fanIn := headPlanes * Height * Width
	w := gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(fanIn, ActionSpace),
		gorgonia.WithName("policy_fc_w"),
		gorgonia.WithValue(heWeights(gen, fanIn, fanIn, ActionSpace)))
	out, err := gorgonia.Mul(flat, w)
	if err != nil {
		return nil, err
	}
	bias := gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(1, ActionSpace),
		gorgonia.WithName("policy_fc_b"),
		gorgonia.WithInit(gorgonia.Zeroes()))
	return gorgonia.Add(out, bias)
}

// valueHead reduces the trunk to one 3x3-conv plane, flattens, passes
// through one hidden FC+relu layer, then a scalar FC+tanh to land in
// [-1, 1] per SPEC_FULL.md §6's value sign convention.
func valueHead(g *gorgonia.ExprGraph, gen *rng.GaussianGenerator, x *gorgonia.Node, k, fc int) (*gorgonia.Node, error) {
	conv, err := convBlock(g, gen, x, k, 1, "value_conv")
	if err != nil {
		return nil, err
	}
	conv, err = gorgonia.Rectify(conv)
	if err != nil {
		return nil, err
	}
	flat, err := gorgonia.Reshape(conv, tensor.Shape{1, Height * Width})
	if err != nil {
		return nil, err
	}

	fanIn1 := Height * Width
	w1 := gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(fanIn1, fc),
		gorgonia.WithName("value_fc1_w"),
		gorgonia.WithValue(heWeights(gen, fanIn1, fanIn1, fc)))
	h, err := gorgonia.Mul(flat, w1)
	if err != nil {
		return nil, err
	}
	b1 := gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(1, fc),
		gorgonia.WithName("value_fc1_b"),
		gorgonia.WithInit(gorgonia.Zeroes()))
	h, err = gorgonia.Add(h, b1)
	if err != nil {
		return nil, err
	}
	h, err = gorgonia.Rectify(h)
	if err != nil {
		return nil, err
	}

	w2 := gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(fc, 1),
		gorgonia.WithName("value_fc2_w"),
		gorgonia.WithValue(heWeights(gen, fc, fc, 1)))
	out, err := gorgonia.Mul(h, w2)
	if err != nil {
		return nil, err
	}
	b2 := gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(1, 1),
		gorgonia.WithName("value_fc2_b"),
		gorgonia.WithInit(gorgonia.Zeroes()))
	out, err = gorgonia.Add(out, b2)
	if err != nil {
		return nil, err
	}
	return gorgonia.Tanh(out)
}

func namef(prefix string, idx int, suffix string) string {
	return prefix + "_" + strconv.Itoa(idx) + "_" + suffix
}
