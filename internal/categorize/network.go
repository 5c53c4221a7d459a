package categorize

import (
	"context"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-7
)

// classifier is the trainable model behind Learned.
type classifier interface {
	fit(ctx context.Context, x *mat.Dense, labels []int) error
	predict(features []float64) int
}

// param is one weight or bias matrix with its Adam moments.
type param struct {
	val, m, v *mat.Dense
}

func newParam(r, c int, init func() float64) *param {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = init()
	}
	return &param{
		val: mat.NewDense(r, c, data),
		m:   mat.NewDense(r, c, nil),
		v:   mat.NewDense(r, c, nil),
	}
}

func (p *param) adamStep(grad *mat.Dense, t int, lr float64) {
	r, c := grad.Dims()
	c1 := 1 - math.Pow(adamBeta1, float64(t))
	c2 := 1 - math.Pow(adamBeta2, float64(t))
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			g := grad.At(i, j)
			m := adamBeta1*p.m.At(i, j) + (1-adamBeta1)*g
			v := adamBeta2*p.v.At(i, j) + (1-adamBeta2)*g*g
			p.m.Set(i, j, m)
			p.v.Set(i, j, v)
			p.val.Set(i, j, p.val.At(i, j)-lr*(m/c1)/(math.Sqrt(v/c2)+adamEpsilon))
		}
	}
}

type denseLayer struct {
	w, b *param
}

// network is a small fully connected classifier: ReLU hidden layers and a
// softmax output, trained with Adam on sparse categorical cross-entropy.
// Inputs are standardized with statistics taken from the training set.
type network struct {
	layers    []denseLayer
	epochs    int
	batchSize int
	lr        float64
	rng       *rand.Rand

	mean, std []float64
	steps     int
}

func newNetwork(inputs int, hidden []int, classes int, rng *rand.Rand) *network {
	sizes := append(append([]int{inputs}, hidden...), classes)
	n := &network{
		epochs:    defaultEpochs,
		batchSize: defaultBatchSize,
		lr:        defaultLearningRate,
		rng:       rng,
	}
	for i := 0; i < len(sizes)-1; i++ {
		fanIn, fanOut := sizes[i], sizes[i+1]
		limit := math.Sqrt(6 / float64(fanIn+fanOut))
		n.layers = append(n.layers, denseLayer{
			w: newParam(fanIn, fanOut, func() float64 { return (rng.Float64()*2 - 1) * limit }),
			b: newParam(1, fanOut, func() float64 { return 0 }),
		})
	}
	return n
}

func (n *network) fit(ctx context.Context, x *mat.Dense, labels []int) error {
	rows, cols := x.Dims()
	n.standardizeFrom(x)
	xs := mat.DenseCopyOf(x)
	xs.Apply(func(_, j int, v float64) float64 { return (v - n.mean[j]) / n.std[j] }, xs)

	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < n.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		n.rng.Shuffle(rows, func(i, j int) { order[i], order[j] = order[j], order[i] })

		for start := 0; start < rows; start += n.batchSize {
			end := min(start+n.batchSize, rows)
			batch := mat.NewDense(end-start, cols, nil)
			batchLabels := make([]int, end-start)
			for k, idx := range order[start:end] {
				batch.SetRow(k, xs.RawRowView(idx))
				batchLabels[k] = labels[idx]
			}
			n.trainBatch(batch, batchLabels)
		}
	}
	return nil
}

func (n *network) standardizeFrom(x *mat.Dense) {
	rows, cols := x.Dims()
	n.mean = make([]float64, cols)
	n.std = make([]float64, cols)
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, x)
		var sum float64
		for _, v := range col {
			sum += v
		}
		mean := sum / float64(rows)
		var sq float64
		for _, v := range col {
			sq += (v - mean) * (v - mean)
		}
		std := math.Sqrt(sq / float64(rows))
		if std == 0 {
			std = 1
		}
		n.mean[j], n.std[j] = mean, std
	}
}

// forward returns the input of every layer (acts[0] is x, the last entry is
// the softmax output) and every pre-activation.
func (n *network) forward(x *mat.Dense) (acts, zs []*mat.Dense) {
	acts = append(acts, x)
	a := x
	for i, l := range n.layers {
		z := new(mat.Dense)
		z.Mul(a, l.w.val)
		bias := l.b.val
		z.Apply(func(_, j int, v float64) float64 { return v + bias.At(0, j) }, z)
		zs = append(zs, z)

		out := new(mat.Dense)
		if i < len(n.layers)-1 {
			out.Apply(func(_, _ int, v float64) float64 { return math.Max(0, v) }, z)
		} else {
			out = softmaxRows(z)
		}
		acts = append(acts, out)
		a = out
	}
	return acts, zs
}

func (n *network) trainBatch(x *mat.Dense, labels []int) {
	acts, zs := n.forward(x)
	rows, _ := x.Dims()

	// Gradient of mean cross-entropy with respect to the softmax logits.
	delta := mat.DenseCopyOf(acts[len(acts)-1])
	for i, label := range labels {
		delta.Set(i, label, delta.At(i, label)-1)
	}
	delta.Scale(1/float64(rows), delta)

	gradsW := make([]*mat.Dense, len(n.layers))
	gradsB := make([]*mat.Dense, len(n.layers))
	for l := len(n.layers) - 1; l >= 0; l-- {
		gw := new(mat.Dense)
		gw.Mul(acts[l].T(), delta)
		gradsW[l] = gw
		gradsB[l] = columnSums(delta)

		if l == 0 {
			break
		}
		prev := new(mat.Dense)
		prev.Mul(delta, n.layers[l].w.val.T())
		z := zs[l-1]
		prev.Apply(func(i, j int, v float64) float64 {
			if z.At(i, j) <= 0 {
				return 0
			}
			return v
		}, prev)
		delta = prev
	}

	n.steps++
	for l, layer := range n.layers {
		layer.w.adamStep(gradsW[l], n.steps, n.lr)
		layer.b.adamStep(gradsB[l], n.steps, n.lr)
	}
}

func (n *network) predict(features []float64) int {
	row := make([]float64, len(features))
	for j, v := range features {
		row[j] = (v - n.mean[j]) / n.std[j]
	}
	acts, _ := n.forward(mat.NewDense(1, len(row), row))
	probs := acts[len(acts)-1].RawRowView(0)

	best := -1
	bestP := math.Inf(-1)
	for j, p := range probs {
		if p > bestP {
			best, bestP = j, p
		}
	}
	return best
}

func softmaxRows(z *mat.Dense) *mat.Dense {
	r, c := z.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		row := z.RawRowView(i)
		maxV := math.Inf(-1)
		for _, v := range row {
			maxV = math.Max(maxV, v)
		}
		var sum float64
		for j, v := range row {
			e := math.Exp(v - maxV)
			out.Set(i, j, e)
			sum += e
		}
		for j := 0; j < c; j++ {
			out.Set(i, j, out.At(i, j)/sum)
		}
	}
	return out
}

func columnSums(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(1, c, nil)
	for j := 0; j < c; j++ {
		var s float64
		for i := 0; i < r; i++ {
			s += m.At(i, j)
		}
		out.Set(0, j, s)
	}
	return out
}
