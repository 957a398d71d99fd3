package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

const (
	ModelDecisionTree       = "decision_tree"
	ModelRandomForest       = "random_forest"
	ModelLogisticRegression = "logistic_regression"
	ModelONNX               = "onnx"
)

// ArtifactVersion is the only artifact format this build understands.
const ArtifactVersion = 1

// Artifact is the serialized form of a fitted pipeline: column encoder plus
// classifier body.
type Artifact struct {
	FormatVersion int             `json:"format_version"`
	ModelType     string          `json:"model_type"`
	Classes       []int           `json:"classes"`
	Encoder       []Transformer   `json:"encoder"`
	Model         json.RawMessage `json:"model"`
}

type treeBody struct {
	Nodes []TreeNode `json:"nodes"`
}

type forestBody struct {
	Trees [][]TreeNode `json:"trees"`
}

type logisticBody struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func readArtifact(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if a.FormatVersion != ArtifactVersion {
		return nil, fmt.Errorf("format version %d, want %d", a.FormatVersion, ArtifactVersion)
	}
	return &a, nil
}

func (a *Artifact) classifier() (Classifier, error) {
	if len(a.Model) == 0 {
		return nil, fmt.Errorf("missing model body")
	}
	switch a.ModelType {
	case ModelDecisionTree:
		var body treeBody
		if err := json.Unmarshal(a.Model, &body); err != nil {
			return nil, err
		}
		return NewDecisionTree(body.Nodes), nil
	case ModelRandomForest:
		var body forestBody
		if err := json.Unmarshal(a.Model, &body); err != nil {
			return nil, err
		}
		return NewRandomForest(body.Trees), nil
	case ModelLogisticRegression:
		var body logisticBody
		if err := json.Unmarshal(a.Model, &body); err != nil {
			return nil, err
		}
		return NewLogisticRegression(body.Coef, body.Intercept), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, a.ModelType)
	}
}

// positiveIndex finds PositiveClass in classes and rejects duplicate labels.
func positiveIndex(classes []int) (int, error) {
	if len(classes) < 2 {
		return 0, fmt.Errorf("need at least 2 classes, got %d", len(classes))
	}
	idx := -1
	seen := make(map[int]bool, len(classes))
	for i, c := range classes {
		if seen[c] {
			return 0, fmt.Errorf("duplicate class %d", c)
		}
		seen[c] = true
		if c == PositiveClass {
			idx = i
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("class list %v has no positive class %d", classes, PositiveClass)
	}
	return idx, nil
}

// Pipeline is an in-process model: encoder followed by a classifier. It holds
// no mutable state, so concurrent calls are safe.
type Pipeline struct {
	modelType string
	classes   []int
	positive  int
	encoder   *Encoder
	clf       Classifier
}

// NewPipeline validates the classifier against the encoder and class list.
func NewPipeline(modelType string, classes []int, encoder *Encoder, clf Classifier) (*Pipeline, error) {
	positive, err := positiveIndex(classes)
	if err != nil {
		return nil, err
	}
	if err := clf.validate(encoder.Width(), len(classes)); err != nil {
		return nil, err
	}
	return &Pipeline{
		modelType: modelType,
		classes:   append([]int(nil), classes...),
		positive:  positive,
		encoder:   encoder,
		clf:       clf,
	}, nil
}

func (p *Pipeline) Type() string {
	return p.modelType
}

func (p *Pipeline) ClassifyAndScore(row Row) (Prediction, error) {
	features, err := p.encoder.Encode(row)
	if err != nil {
		return Prediction{}, err
	}
	classIdx, err := p.clf.PredictClass(features)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict class: %w", err)
	}
	proba, err := p.clf.PredictProba(features)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict proba: %w", err)
	}
	if classIdx < 0 || classIdx >= len(p.classes) || len(proba) != len(p.classes) {
		return Prediction{}, fmt.Errorf("classifier output does not match %d classes", len(p.classes))
	}
	prob := proba[p.positive]
	if math.IsNaN(prob) || math.IsInf(prob, 0) {
		return Prediction{}, fmt.Errorf("non-finite probability %v", prob)
	}
	return Prediction{Class: p.classes[classIdx], Probability: prob}, nil
}
