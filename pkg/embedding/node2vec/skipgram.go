package node2vec

import (
	"context"
	"math"
	"math/rand/v2"
)

const (
	unigramPower = 0.75
	maxExp       = 6.0
)

// skipGram is a word2vec skip-gram model with negative sampling over node
// indices.
type skipGram struct {
	dim    int
	in     []float64 // vocab x dim, the embedding
	out    []float64 // vocab x dim, context weights
	noise  []float64 // cumulative unigram^0.75 distribution
	rng    *rand.Rand
	neu1e  []float64
	cfg    Config
	tokens int
}

func newSkipGram(vocab int, walks [][]int, cfg Config) *skipGram {
	sg := &skipGram{
		dim:   cfg.Dimensions,
		in:    make([]float64, vocab*cfg.Dimensions),
		out:   make([]float64, vocab*cfg.Dimensions),
		rng:   rand.New(rand.NewPCG(cfg.Seed, 0x736b6970)),
		neu1e: make([]float64, cfg.Dimensions),
		cfg:   cfg,
	}
	for i := range sg.in {
		sg.in[i] = (sg.rng.Float64() - 0.5) / float64(sg.dim)
	}

	counts := make([]float64, vocab)
	for _, w := range walks {
		for _, v := range w {
			counts[v]++
		}
		sg.tokens += len(w)
	}
	sg.noise = make([]float64, vocab)
	total := 0.0
	for i, c := range counts {
		total += math.Pow(c, unigramPower)
		sg.noise[i] = total
	}
	return sg
}

func (sg *skipGram) sampleNoise() int {
	total := sg.noise[len(sg.noise)-1]
	r := sg.rng.Float64() * total
	lo, hi := 0, len(sg.noise)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if sg.noise[mid] > r {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

func sigmoid(x float64) float64 {
	switch {
	case x > maxExp:
		return 1
	case x < -maxExp:
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}

// train runs every epoch over the corpus in order. The learning rate decays
// linearly from LearningRate to MinLearningRate across all epochs.
func (sg *skipGram) train(ctx context.Context, walks [][]int) error {
	if sg.tokens == 0 || sg.noise[len(sg.noise)-1] == 0 {
		return nil
	}
	totalSteps := float64(sg.tokens * sg.cfg.Epochs)
	seen := 0

	for epoch := 0; epoch < sg.cfg.Epochs; epoch++ {
		for _, walk := range walks {
			if err := ctx.Err(); err != nil {
				return err
			}
			for pos, center := range walk {
				lr := sg.cfg.LearningRate - (sg.cfg.LearningRate-sg.cfg.MinLearningRate)*float64(seen)/totalSteps
				seen++

				// word2vec shrinks the window at random per position
				b := sg.rng.IntN(sg.cfg.WindowSize)
				lo := max(0, pos-sg.cfg.WindowSize+b)
				hi := min(len(walk)-1, pos+sg.cfg.WindowSize-b)
				for c := lo; c <= hi; c++ {
					if c == pos {
						continue
					}
					sg.pair(walk[c], center, lr)
				}
			}
		}
	}
	return nil
}

// pair trains the input row of source against target and the sampled
// negatives.
func (sg *skipGram) pair(source, target int, lr float64) {
	d := sg.dim
	l1 := sg.in[source*d : (source+1)*d]
	clear(sg.neu1e)

	for k := 0; k <= sg.cfg.NegativeSamples; k++ {
		word, label := target, 1.0
		if k > 0 {
			word = sg.sampleNoise()
			if word == target {
				continue
			}
			label = 0
		}
		l2 := sg.out[word*d : (word+1)*d]
		f := 0.0
		for i := range l1 {
			f += l1[i] * l2[i]
		}
		g := (label - sigmoid(f)) * lr
		for i := range l1 {
			sg.neu1e[i] += g * l2[i]
			l2[i] += g * l1[i]
		}
	}
	for i := range l1 {
		l1[i] += sg.neu1e[i]
	}
}

func (sg *skipGram) vector(node int) []float64 {
	return sg.in[node*sg.dim : (node+1)*sg.dim]
}
