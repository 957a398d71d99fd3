package ml

import (
	"errors"
	"fmt"
	"math"
)

// RandomForest averages the class distributions of its trees.
type RandomForest struct {
	trees []*DecisionTree
}

func NewRandomForest(trees [][]TreeNode) *RandomForest {
	rf := &RandomForest{trees: make([]*DecisionTree, len(trees))}
	for i, nodes := range trees {
		rf.trees[i] = NewDecisionTree(nodes)
	}
	return rf
}

func (rf *RandomForest) PredictClass(features []float64) (int, error) {
	proba, err := rf.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return argmax(proba), nil
}

func (rf *RandomForest) PredictProba(features []float64) ([]float64, error) {
	if len(rf.trees) == 0 {
		return nil, errors.New("forest has no trees")
	}
	var sum []float64
	for i, tree := range rf.trees {
		proba, err := tree.PredictProba(features)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		if sum == nil {
			sum = make([]float64, len(proba))
		}
		for k, p := range proba {
			sum[k] += p
		}
	}
	for k := range sum {
		sum[k] /= float64(len(rf.trees))
	}
	return sum, nil
}

func (rf *RandomForest) validate(width, classes int) error {
	if len(rf.trees) == 0 {
		return errors.New("forest has no trees")
	}
	for i, tree := range rf.trees {
		if err := tree.validate(width, classes); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// LogisticRegression is a binary linear model. The class decision comes from
// the sign of the decision function, never from the probability.
type LogisticRegression struct {
	coef      []float64
	intercept float64
}

func NewLogisticRegression(coef []float64, intercept float64) *LogisticRegression {
	return &LogisticRegression{coef: coef, intercept: intercept}
}

func (lr *LogisticRegression) decision(features []float64) (float64, error) {
	if len(features) != len(lr.coef) {
		return 0, fmt.Errorf("got %d features, want %d", len(features), len(lr.coef))
	}
	d := lr.intercept
	for i, w := range lr.coef {
		d += w * features[i]
	}
	return d, nil
}

func (lr *LogisticRegression) PredictClass(features []float64) (int, error) {
	d, err := lr.decision(features)
	if err != nil {
		return 0, err
	}
	if d > 0 {
		return 1, nil
	}
	return 0, nil
}

func (lr *LogisticRegression) PredictProba(features []float64) ([]float64, error) {
	d, err := lr.decision(features)
	if err != nil {
		return nil, err
	}
	p := sigmoid(d)
	return []float64{1 - p, p}, nil
}

func (lr *LogisticRegression) validate(width, classes int) error {
	if classes != 2 {
		return fmt.Errorf("logistic regression needs 2 classes, got %d", classes)
	}
	if len(lr.coef) != width {
		return fmt.Errorf("%d coefficients for encoded width %d", len(lr.coef), width)
	}
	return nil
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
