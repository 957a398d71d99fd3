package ml

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LoadConfig locates the artifact. ModelType may be empty, in which case the
// type stored in the artifact is used; ".onnx" paths always load as ONNX.
type LoadConfig struct {
	ModelType    string
	ModelPath    string
	MetadataPath string
	LibraryPath  string
}

// LoadModel reads the artifact once and returns an immutable handle. Any
// failure wraps ErrArtifact and means the process cannot serve.
func LoadModel(cfg LoadConfig, schema []Column) (Model, error) {
	modelType := cfg.ModelType
	if modelType == "" && strings.EqualFold(filepath.Ext(cfg.ModelPath), ".onnx") {
		modelType = ModelONNX
	}

	switch modelType {
	case ModelONNX:
		m, err := NewONNXModel(cfg.ModelPath, cfg.MetadataPath, cfg.LibraryPath, schema)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrArtifact, err)
		}
		return m, nil
	case "", ModelDecisionTree, ModelRandomForest, ModelLogisticRegression:
		m, err := loadPipeline(cfg.ModelPath, modelType, schema)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrArtifact, cfg.ModelPath, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %w: %q", ErrArtifact, ErrUnsupportedModel, modelType)
	}
}

func loadPipeline(path, modelType string, schema []Column) (*Pipeline, error) {
	artifact, err := readArtifact(path)
	if err != nil {
		return nil, err
	}
	if modelType != "" && artifact.ModelType != modelType {
		return nil, fmt.Errorf("artifact holds %q, configured %q", artifact.ModelType, modelType)
	}
	encoder, err := NewEncoder(schema, artifact.Encoder)
	if err != nil {
		return nil, err
	}
	clf, err := artifact.classifier()
	if err != nil {
		return nil, err
	}
	return NewPipeline(artifact.ModelType, artifact.Classes, encoder, clf)
}
