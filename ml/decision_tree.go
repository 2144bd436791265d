package ml

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// TreeConfig controls tree growth. Zero values mean unlimited depth, all
// features considered at every split and a minimum of two samples to split.
type TreeConfig struct {
	MaxDepth        int
	MaxFeatures     int
	MinSamplesSplit int
}

// DecisionTree is a binary CART classifier stored as a flat node slice. Leaves
// carry the fraction of positive training samples that reached them.
type DecisionTree struct {
	Nodes []TreeNode `json:"nodes"`

	config TreeConfig
	rng    *rand.Rand
}

type TreeNode struct {
	FeatureIdx  int     `json:"feature_idx"`
	Threshold   float64 `json:"threshold"`
	LeftChild   int     `json:"left_child"`
	RightChild  int     `json:"right_child"`
	Probability float64 `json:"probability"`
	IsLeaf      bool    `json:"is_leaf"`
}

func NewDecisionTree(config TreeConfig, rng *rand.Rand) *DecisionTree {
	if config.MinSamplesSplit < 2 {
		config.MinSamplesSplit = 2
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &DecisionTree{config: config, rng: rng}
}

func (dt *DecisionTree) Fit(features [][]float64, labels []int) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	if dt.rng == nil {
		dt.rng = rand.New(rand.NewSource(1))
	}
	if dt.config.MinSamplesSplit < 2 {
		dt.config.MinSamplesSplit = 2
	}

	dt.Nodes = dt.buildNode(features, labels, 0)
	return nil
}

func (dt *DecisionTree) PredictProba(features []float64) (float64, error) {
	if len(dt.Nodes) == 0 {
		return 0, ErrNotTrained
	}
	idx := 0
	for steps := 0; steps <= len(dt.Nodes); steps++ {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node.Probability, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
	return 0, errors.New("invalid tree state: cycle")
}

// Predict returns the label and the confidence in that label.
func (dt *DecisionTree) Predict(features []float64) (int, float64, error) {
	p, err := dt.PredictProba(features)
	if err != nil {
		return 0, 0, err
	}
	label := labelFor(p)
	if label == 1 {
		return label, p, nil
	}
	return label, 1 - p, nil
}

func (dt *DecisionTree) buildNode(features [][]float64, labels []int, depth int) []TreeNode {
	leaf := []TreeNode{{
		FeatureIdx:  -1,
		LeftChild:   -1,
		RightChild:  -1,
		Probability: positiveFraction(labels),
		IsLeaf:      true,
	}}
	if dt.config.MaxDepth > 0 && depth >= dt.config.MaxDepth {
		return leaf
	}
	if isPure(labels) || len(labels) < dt.config.MinSamplesSplit {
		return leaf
	}

	bestFeature, threshold, ok := dt.findBestSplit(features, labels)
	if !ok {
		return leaf
	}

	leftFeatures, leftLabels, rightFeatures, rightLabels := splitData(features, labels, bestFeature, threshold)
	if len(leftLabels) == 0 || len(rightLabels) == 0 {
		return leaf
	}

	leftNodes := dt.buildNode(leftFeatures, leftLabels, depth+1)
	rightNodes := dt.buildNode(rightFeatures, rightLabels, depth+1)

	root := TreeNode{
		FeatureIdx:  bestFeature,
		Threshold:   threshold,
		LeftChild:   1,
		RightChild:  1 + len(leftNodes),
		Probability: leaf[0].Probability,
		IsLeaf:      false,
	}

	nodes := make([]TreeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, root)
	nodes = append(nodes, shiftChildren(leftNodes, 1)...)
	nodes = append(nodes, shiftChildren(rightNodes, 1+len(leftNodes))...)
	return nodes
}

// findBestSplit scans a random subset of features for the midpoint threshold
// with the lowest weighted Gini impurity. When none of the sampled features can
// split the node, the remaining features are tried before giving up.
func (dt *DecisionTree) findBestSplit(features [][]float64, labels []int) (int, float64, bool) {
	featureCount := len(features[0])
	maxFeatures := dt.config.MaxFeatures
	if maxFeatures <= 0 || maxFeatures > featureCount {
		maxFeatures = featureCount
	}

	bestFeature := -1
	bestThreshold := 0.0
	bestImpurity := math.MaxFloat64

	order := dt.rng.Perm(featureCount)
	for visited, featureIdx := range order {
		if visited >= maxFeatures && bestFeature != -1 {
			break
		}
		threshold, impurity, ok := bestThresholdFor(features, labels, featureIdx)
		if !ok {
			continue
		}
		if impurity < bestImpurity {
			bestImpurity = impurity
			bestFeature = featureIdx
			bestThreshold = threshold
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func bestThresholdFor(features [][]float64, labels []int, featureIdx int) (float64, float64, bool) {
	n := len(features)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return features[order[a]][featureIdx] < features[order[b]][featureIdx]
	})

	totalPositive := 0
	for _, label := range labels {
		totalPositive += label
	}

	bestImpurity := math.MaxFloat64
	bestThreshold := 0.0
	found := false
	leftPositive := 0
	for i := 0; i < n-1; i++ {
		leftPositive += labels[order[i]]
		current := features[order[i]][featureIdx]
		next := features[order[i+1]][featureIdx]
		if current == next {
			continue
		}
		leftCount := i + 1
		rightCount := n - leftCount
		impurity := weightedGini(leftCount, leftPositive, rightCount, totalPositive-leftPositive)
		if impurity < bestImpurity {
			bestImpurity = impurity
			bestThreshold = current + (next-current)/2
			if bestThreshold >= next {
				bestThreshold = current
			}
			found = true
		}
	}
	return bestThreshold, bestImpurity, found
}

func splitData(features [][]float64, labels []int, featureIdx int, threshold float64) ([][]float64, []int, [][]float64, []int) {
	leftFeatures := make([][]float64, 0)
	leftLabels := make([]int, 0)
	rightFeatures := make([][]float64, 0)
	rightLabels := make([]int, 0)
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftFeatures = append(leftFeatures, feature)
			leftLabels = append(leftLabels, labels[i])
		} else {
			rightFeatures = append(rightFeatures, feature)
			rightLabels = append(rightLabels, labels[i])
		}
	}
	return leftFeatures, leftLabels, rightFeatures, rightLabels
}

// shiftChildren rebases child indexes of a subtree that is appended at offset.
func shiftChildren(nodes []TreeNode, offset int) []TreeNode {
	for i := range nodes {
		if nodes[i].IsLeaf {
			continue
		}
		nodes[i].LeftChild += offset
		nodes[i].RightChild += offset
	}
	return nodes
}

func weightedGini(leftCount, leftPositive, rightCount, rightPositive int) float64 {
	total := float64(leftCount + rightCount)
	return (float64(leftCount)/total)*gini(leftCount, leftPositive) +
		(float64(rightCount)/total)*gini(rightCount, rightPositive)
}

func gini(count, positive int) float64 {
	if count == 0 {
		return 0
	}
	p := float64(positive) / float64(count)
	return 1 - p*p - (1-p)*(1-p)
}

func positiveFraction(labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	positive := 0
	for _, label := range labels {
		positive += label
	}
	return float64(positive) / float64(len(labels))
}

func isPure(labels []int) bool {
	if len(labels) == 0 {
		return true
	}
	first := labels[0]
	for _, label := range labels[1:] {
		if label != first {
			return false
		}
	}
	return true
}
