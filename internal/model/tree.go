package model

import (
	"errors"
	"fmt"
)

// ErrFeatureCount is returned when a feature vector does not match the width a tree was fit on.
var ErrFeatureCount = errors.New("feature vector had incorrect length")

// A Node represents a splitting decision of the form "x[FeatureIndex] <= Threshold ?"
type Node struct {
	// FeatureIndex indicates which feature is used in this splitting decision
	FeatureIndex int `json:"feature_index"`
	// Threshold is the cutoff value; values less than or equal to it go left
	Threshold float64 `json:"threshold"`
	// LeftChild is the index of the node (or leaf) for the left subtree
	LeftChild int `json:"left_child"`
	// LeftIsLeaf indicates whether LeftChild indexes a leaf
	LeftIsLeaf bool `json:"left_is_leaf"`
	// RightChild is the index of the node (or leaf) for the right subtree
	RightChild int `json:"right_child"`
	// RightIsLeaf indicates whether RightChild indexes a leaf
	RightIsLeaf bool `json:"right_is_leaf"`
}

// A Tree maps a feature vector to a leaf. Regression trees carry one output per leaf,
// classification trees carry a class weight distribution per leaf.
type Tree struct {
	// Nodes is a flat list of all split nodes; an empty list means the tree is a single leaf 0
	Nodes []Node `json:"nodes"`
	// Outputs holds the value of each leaf for regression trees
	Outputs []float64 `json:"outputs,omitempty"`
	// Distributions holds per-leaf class weights for classification trees
	Distributions [][]float64 `json:"distributions,omitempty"`
	// FeatureSize is the length of feature vectors processed by this tree
	FeatureSize int `json:"feature_size"`
	// Depth is the maximum depth of any leaf in the tree
	Depth int `json:"depth"`
}

// Leaf drops a feature vector down the tree and returns the index of the leaf it ends up in.
func (t *Tree) Leaf(x []float64) (int, error) {
	if len(x) != t.FeatureSize {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(x), t.FeatureSize)
	}
	if len(t.Nodes) == 0 {
		return 0, nil
	}

	cur := t.Nodes[0]
	for i := 0; i < t.Depth; i++ {
		if x[cur.FeatureIndex] <= cur.Threshold {
			if cur.LeftIsLeaf {
				return cur.LeftChild, nil
			}
			cur = t.Nodes[cur.LeftChild]
		} else {
			if cur.RightIsLeaf {
				return cur.RightChild, nil
			}
			cur = t.Nodes[cur.RightChild]
		}
	}
	return 0, fmt.Errorf("tree traversal did not terminate within depth %d", t.Depth)
}

// Evaluate returns the regression output of the leaf x falls into.
func (t *Tree) Evaluate(x []float64) (float64, error) {
	leaf, err := t.Leaf(x)
	if err != nil {
		return 0, err
	}
	return t.Outputs[leaf], nil
}

// Proba returns the normalized class distribution of the leaf x falls into.
func (t *Tree) Proba(x []float64) ([]float64, error) {
	leaf, err := t.Leaf(x)
	if err != nil {
		return nil, err
	}

	weights := t.Distributions[leaf]
	total := 0.0
	for _, w := range weights {
		total += w
	}

	proba := make([]float64, len(weights))
	if total == 0 {
		return proba, nil
	}
	for i, w := range weights {
		proba[i] = w / total
	}
	return proba, nil
}

// validate checks that every child reference and the leaf tables are in range.
func (t *Tree) validate(kind Kind, classes int) error {
	if t.FeatureSize <= 0 {
		return fmt.Errorf("feature_size must be positive")
	}

	leaves := len(t.Outputs)
	if kind == KindClassifier {
		leaves = len(t.Distributions)
		for i, d := range t.Distributions {
			if len(d) != classes {
				return fmt.Errorf("leaf %d has %d class weights, want %d", i, len(d), classes)
			}
		}
	}
	if leaves == 0 {
		return fmt.Errorf("tree has no leaves")
	}
	if len(t.Nodes) > 0 && t.Depth <= 0 {
		return fmt.Errorf("depth must be positive for a tree with split nodes")
	}

	checkChild := func(idx int, isLeaf bool) error {
		if isLeaf {
			if idx < 0 || idx >= leaves {
				return fmt.Errorf("leaf index %d out of range [0,%d)", idx, leaves)
			}
			return nil
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return fmt.Errorf("node index %d out of range [0,%d)", idx, len(t.Nodes))
		}
		return nil
	}

	for i, n := range t.Nodes {
		if n.FeatureIndex < 0 || n.FeatureIndex >= t.FeatureSize {
			return fmt.Errorf("node %d splits on feature %d, tree has %d", i, n.FeatureIndex, t.FeatureSize)
		}
		if err := checkChild(n.LeftChild, n.LeftIsLeaf); err != nil {
			return fmt.Errorf("node %d left: %w", i, err)
		}
		if err := checkChild(n.RightChild, n.RightIsLeaf); err != nil {
			return fmt.Errorf("node %d right: %w", i, err)
		}
	}
	return nil
}
