package ml_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termdeposit/client"
	"termdeposit/ml"
)

const shippedArtifact = "../model/bank_term_deposit_model.json"

func scenarioRecord() client.Record {
	return client.Record{
		Age: 35, Job: "management", Marital: "married", Education: "tertiary",
		Default: "no", Balance: 1500, Housing: "yes", Loan: "no",
		Contact: "cellular", Month: "may", Duration: 200, Campaign: 1,
		Pdays: -1, Previous: 0, Poutcome: "unknown",
	}
}

func TestLoadShippedArtifact(t *testing.T) {
	model, err := ml.LoadModel(ml.LoadConfig{ModelPath: shippedArtifact}, client.Schema())
	require.NoError(t, err)
	assert.Equal(t, ml.ModelLogisticRegression, model.Type())

	first, err := model.ClassifyAndScore(scenarioRecord().Row())
	require.NoError(t, err)
	second, err := model.ClassifyAndScore(scenarioRecord().Row())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, []int{0, 1}, first.Class)
	assert.GreaterOrEqual(t, first.Probability, 0.0)
	assert.LessOrEqual(t, first.Probability, 1.0)
}

func TestLoadShippedArtifactUnseenJob(t *testing.T) {
	model, err := ml.LoadModel(ml.LoadConfig{ModelPath: shippedArtifact}, client.Schema())
	require.NoError(t, err)

	rec := scenarioRecord()
	rec.Job = "astronaut"
	pred, err := model.ClassifyAndScore(rec.Row())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pred.Probability, 0.0)
	assert.LessOrEqual(t, pred.Probability, 1.0)
}

func writeArtifact(t *testing.T, artifact map[string]interface{}) string {
	t.Helper()
	payload, err := json.Marshal(artifact)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, payload, 0o600))
	return path
}

// identityEncoder passes every column through or one-hot encodes it with its
// full closed set, giving 6 + 44 features.
func identityEncoder() []ml.Transformer {
	onehot := ml.Transformer{Kind: ml.TransformOneHot}
	numeric := ml.Transformer{Kind: ml.TransformPassthrough}
	for _, f := range client.Fields {
		if f.Kind == ml.Numeric {
			numeric.Columns = append(numeric.Columns, f.Name)
			continue
		}
		onehot.Columns = append(onehot.Columns, f.Name)
		onehot.Categories = append(onehot.Categories, f.Options)
	}
	return []ml.Transformer{numeric, onehot}
}

func TestLoadDecisionTreeArtifact(t *testing.T) {
	// feature 2 is duration
	path := writeArtifact(t, map[string]interface{}{
		"format_version": 1,
		"model_type":     ml.ModelDecisionTree,
		"classes":        []int{0, 1},
		"encoder":        identityEncoder(),
		"model": map[string]interface{}{
			"nodes": []ml.TreeNode{
				{FeatureIdx: 2, Threshold: 500, LeftChild: 1, RightChild: 2},
				{IsLeaf: true, Value: []float64{90, 10}},
				{IsLeaf: true, Value: []float64{30, 70}},
			},
		},
	})

	model, err := ml.LoadModel(ml.LoadConfig{ModelType: ml.ModelDecisionTree, ModelPath: path}, client.Schema())
	require.NoError(t, err)

	pred, err := model.ClassifyAndScore(scenarioRecord().Row())
	require.NoError(t, err)
	assert.Equal(t, 0, pred.Class)
	assert.InDelta(t, 0.1, pred.Probability, 1e-12)

	long := scenarioRecord()
	long.Duration = 900
	pred, err = model.ClassifyAndScore(long.Row())
	require.NoError(t, err)
	assert.Equal(t, 1, pred.Class)
	assert.InDelta(t, 0.7, pred.Probability, 1e-12)
}

func TestLoadRandomForestWithReorderedClasses(t *testing.T) {
	// class 1 listed first: probability must come from its column
	path := writeArtifact(t, map[string]interface{}{
		"format_version": 1,
		"model_type":     ml.ModelRandomForest,
		"classes":        []int{1, 0},
		"encoder":        identityEncoder(),
		"model": map[string]interface{}{
			"trees": [][]ml.TreeNode{
				{{IsLeaf: true, Value: []float64{1, 3}}},
				{{IsLeaf: true, Value: []float64{1, 1}}},
			},
		},
	})

	model, err := ml.LoadModel(ml.LoadConfig{ModelPath: path}, client.Schema())
	require.NoError(t, err)

	pred, err := model.ClassifyAndScore(scenarioRecord().Row())
	require.NoError(t, err)
	assert.Equal(t, 0, pred.Class)
	assert.InDelta(t, 0.375, pred.Probability, 1e-12)
}

func TestLoadModelFailures(t *testing.T) {
	valid := func() map[string]interface{} {
		return map[string]interface{}{
			"format_version": 1,
			"model_type":     ml.ModelLogisticRegression,
			"classes":        []int{0, 1},
			"encoder":        identityEncoder(),
			"model":          map[string]interface{}{"coef": make([]float64, 50), "intercept": 0},
		}
	}

	corrupt := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("\x80\x04\x95 pickle"), 0o600))

	noPositive := valid()
	noPositive["classes"] = []int{0, 2}

	badVersion := valid()
	badVersion["format_version"] = 2

	shortCoef := valid()
	shortCoef["model"] = map[string]interface{}{"coef": make([]float64, 10)}

	partialSchema := valid()
	partialSchema["encoder"] = identityEncoder()[1:]

	unknownType := valid()
	unknownType["model_type"] = "gradient_boosting"

	tests := []struct {
		name string
		cfg  ml.LoadConfig
	}{
		{"missing file", ml.LoadConfig{ModelPath: filepath.Join(t.TempDir(), "absent.json")}},
		{"corrupt file", ml.LoadConfig{ModelPath: corrupt}},
		{"no positive class", ml.LoadConfig{ModelPath: writeArtifact(t, noPositive)}},
		{"format version", ml.LoadConfig{ModelPath: writeArtifact(t, badVersion)}},
		{"coefficient count", ml.LoadConfig{ModelPath: writeArtifact(t, shortCoef)}},
		{"partial schema", ml.LoadConfig{ModelPath: writeArtifact(t, partialSchema)}},
		{"unknown artifact type", ml.LoadConfig{ModelPath: writeArtifact(t, unknownType)}},
		{"configured type mismatch", ml.LoadConfig{ModelType: ml.ModelRandomForest, ModelPath: writeArtifact(t, valid())}},
		{"unknown configured type", ml.LoadConfig{ModelType: "svm", ModelPath: writeArtifact(t, valid())}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ml.LoadModel(tt.cfg, client.Schema())
			require.Error(t, err)
			assert.ErrorIs(t, err, ml.ErrArtifact)
		})
	}
}

func writeMetadata(t *testing.T, body []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.metadata.json")
	require.NoError(t, os.WriteFile(path, body, 0o600))
	return path
}

// These fail while reading the sidecar, before onnxruntime is initialized.
func TestLoadONNXMetadataFailures(t *testing.T) {
	metadata := func(classes []int, encoder []ml.Transformer) []byte {
		payload, err := json.Marshal(ml.ONNXMetadata{Classes: classes, Encoder: encoder})
		require.NoError(t, err)
		return payload
	}
	modelPath := filepath.Join(t.TempDir(), "bank_term_deposit_model.onnx")

	tests := []struct {
		name string
		cfg  ml.LoadConfig
	}{
		{"missing metadata", ml.LoadConfig{ModelPath: modelPath, MetadataPath: filepath.Join(t.TempDir(), "absent.json")}},
		{"malformed metadata", ml.LoadConfig{ModelPath: modelPath, MetadataPath: writeMetadata(t, []byte(`{"classes":`))}},
		{"no positive class", ml.LoadConfig{ModelPath: modelPath, MetadataPath: writeMetadata(t, metadata([]int{0, 2}, identityEncoder()))}},
		{"partial schema", ml.LoadConfig{ModelPath: modelPath, MetadataPath: writeMetadata(t, metadata([]int{0, 1}, identityEncoder()[1:]))}},
		{"explicit type", ml.LoadConfig{ModelType: ml.ModelONNX, ModelPath: "model.bin", MetadataPath: writeMetadata(t, []byte(`[]`))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ml.LoadModel(tt.cfg, client.Schema())
			require.Error(t, err)
			assert.ErrorIs(t, err, ml.ErrArtifact)
			assert.NotErrorIs(t, err, ml.ErrUnsupportedModel)
		})
	}
}

func TestLoadONNXExtensionIsNotReadAsJSON(t *testing.T) {
	// an .onnx path goes to the ONNX backend, which needs its sidecar
	_, err := ml.LoadModel(ml.LoadConfig{ModelPath: "model/BANK.ONNX"}, client.Schema())
	require.Error(t, err)
	assert.ErrorIs(t, err, ml.ErrArtifact)
	assert.Contains(t, err.Error(), "metadata")
}
