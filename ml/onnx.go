package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXMetadata is the JSON sidecar describing an exported ONNX classifier.
// The graph takes the encoded float32 vector and emits an int64 label and
// float32 class probabilities.
type ONNXMetadata struct {
	Classes           []int         `json:"classes"`
	Encoder           []Transformer `json:"encoder"`
	InputName         string        `json:"input_name"`
	LabelOutput       string        `json:"label_output"`
	ProbabilityOutput string        `json:"probability_output"`
}

// ONNXModel runs the classifier through onnxruntime. The session is bound to
// fixed tensors, so runs are serialized.
type ONNXModel struct {
	mu          sync.Mutex
	session     *ort.AdvancedSession
	Metadata    ONNXMetadata
	encoder     *Encoder
	positive    int
	inputTensor *ort.Tensor[float32]
	labelTensor *ort.Tensor[int64]
	probTensor  *ort.Tensor[float32]
}

func NewONNXModel(modelPath, metadataPath, libraryPath string, schema []Column) (*ONNXModel, error) {
	metaFile, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata ONNXMetadata
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if metadata.InputName == "" {
		metadata.InputName = "input"
	}
	if metadata.LabelOutput == "" {
		metadata.LabelOutput = "label"
	}
	if metadata.ProbabilityOutput == "" {
		metadata.ProbabilityOutput = "probabilities"
	}

	positive, err := positiveIndex(metadata.Classes)
	if err != nil {
		return nil, err
	}
	encoder, err := NewEncoder(schema, metadata.Encoder)
	if err != nil {
		return nil, err
	}

	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	m := &ONNXModel{Metadata: metadata, encoder: encoder, positive: positive}

	m.inputTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(encoder.Width())))
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	m.labelTensor, err = ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create label tensor: %w", err)
	}
	m.probTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(metadata.Classes))))
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create probability tensor: %w", err)
	}

	m.session, err = ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName},
		[]string{metadata.LabelOutput, metadata.ProbabilityOutput},
		[]ort.ArbitraryTensor{m.inputTensor},
		[]ort.ArbitraryTensor{m.labelTensor, m.probTensor},
		nil)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return m, nil
}

func (m *ONNXModel) Type() string {
	return ModelONNX
}

func (m *ONNXModel) ClassifyAndScore(row Row) (Prediction, error) {
	features, err := m.encoder.Encode(row)
	if err != nil {
		return Prediction{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	input := m.inputTensor.GetData()
	for i, v := range features {
		input[i] = float32(v)
	}
	if err := m.session.Run(); err != nil {
		return Prediction{}, fmt.Errorf("inference failed: %w", err)
	}

	label := int(m.labelTensor.GetData()[0])
	prob := float64(m.probTensor.GetData()[m.positive])
	if math.IsNaN(prob) || math.IsInf(prob, 0) {
		return Prediction{}, fmt.Errorf("non-finite probability %v", prob)
	}
	return Prediction{Class: label, Probability: prob}, nil
}

func (m *ONNXModel) Close() error {
	if m.inputTensor != nil {
		m.inputTensor.Destroy()
	}
	if m.labelTensor != nil {
		m.labelTensor.Destroy()
	}
	if m.probTensor != nil {
		m.probTensor.Destroy()
	}
	if m.session != nil {
		m.session.Destroy()
	}
	return ort.DestroyEnvironment()
}
