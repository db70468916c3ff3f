package analytics

import (
	"math"
	"math/rand"
)

const (
	DefaultForestTrees   = 100
	DefaultForestSamples = 256
	DefaultSeed          = 42
)

// eulerGamma is the Euler–Mascheroni constant used by the harmonic approximation
const eulerGamma = 0.5772156649015329

// isolationForest is an ensemble of random isolation trees fitted on
// standardized feature vectors. A fixed seed makes scoring reproducible.
type isolationForest struct {
	trees      []*isolationNode
	sampleSize int
}

type isolationNode struct {
	feature int
	split   float64
	left    *isolationNode
	right   *isolationNode
	size    int // number of samples reaching a leaf
}

func (n *isolationNode) leaf() bool {
	return n.left == nil && n.right == nil
}

// fitIsolationForest builds numTrees trees on subsamples of at most
// maxSamples rows drawn without replacement.
func fitIsolationForest(data [][]float64, numTrees, maxSamples int, seed int64) *isolationForest {
	rng := rand.New(rand.NewSource(seed))

	sampleSize := maxSamples
	if len(data) < sampleSize {
		sampleSize = len(data)
	}
	maxDepth := int(math.Ceil(math.Log2(math.Max(float64(sampleSize), 2))))

	forest := &isolationForest{
		trees:      make([]*isolationNode, 0, numTrees),
		sampleSize: sampleSize,
	}

	for i := 0; i < numTrees; i++ {
		sample := subsample(data, sampleSize, rng)
		forest.trees = append(forest.trees, buildIsolationNode(sample, 0, maxDepth, rng))
	}
	return forest
}

func subsample(data [][]float64, size int, rng *rand.Rand) [][]float64 {
	perm := rng.Perm(len(data))
	out := make([][]float64, size)
	for i := 0; i < size; i++ {
		out[i] = data[perm[i]]
	}
	return out
}

func buildIsolationNode(data [][]float64, depth, maxDepth int, rng *rand.Rand) *isolationNode {
	if depth >= maxDepth || len(data) <= 1 {
		return &isolationNode{size: len(data)}
	}

	// only features that still vary inside this node can split it
	numFeatures := len(data[0])
	candidates := make([]int, 0, numFeatures)
	lows := make([]float64, numFeatures)
	highs := make([]float64, numFeatures)
	for f := 0; f < numFeatures; f++ {
		lo, hi := data[0][f], data[0][f]
		for _, row := range data[1:] {
			lo = math.Min(lo, row[f])
			hi = math.Max(hi, row[f])
		}
		lows[f], highs[f] = lo, hi
		if hi > lo {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return &isolationNode{size: len(data)}
	}

	feature := candidates[rng.Intn(len(candidates))]
	split := lows[feature] + rng.Float64()*(highs[feature]-lows[feature])

	var left, right [][]float64
	for _, row := range data {
		if row[feature] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	return &isolationNode{
		feature: feature,
		split:   split,
		left:    buildIsolationNode(left, depth+1, maxDepth, rng),
		right:   buildIsolationNode(right, depth+1, maxDepth, rng),
	}
}

// score returns -2^(-E[h(x)]/c(ψ)). Values close to -1 are anomalous,
// values around -0.5 are ordinary.
func (f *isolationForest) score(x []float64) float64 {
	if len(f.trees) == 0 {
		return math.NaN()
	}
	var total float64
	for _, tree := range f.trees {
		total += pathLength(x, tree, 0)
	}
	mean := total / float64(len(f.trees))

	norm := averagePathLength(f.sampleSize)
	if norm == 0 {
		return -1
	}
	return -math.Pow(2, -mean/norm)
}

func pathLength(x []float64, node *isolationNode, depth int) float64 {
	for !node.leaf() {
		if x[node.feature] < node.split {
			node = node.left
		} else {
			node = node.right
		}
		depth++
	}
	return float64(depth) + averagePathLength(node.size)
}

// averagePathLength is c(n), the expected path length of an unsuccessful
// BST search over n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	harmonic := math.Log(fn-1) + eulerGamma
	return 2*harmonic - 2*(fn-1)/fn
}
