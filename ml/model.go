package ml

import "errors"

var (
	// ErrArtifact wraps every failure to read, decode or validate a model artifact.
	ErrArtifact = errors.New("invalid model artifact")
	// ErrSchemaMismatch is returned when a row or an artifact disagrees with the input schema.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrUnsupportedModel is returned for an unknown model type.
	ErrUnsupportedModel = errors.New("unsupported model type")
)

// PositiveClass is the class label for "subscribes to a term deposit".
const PositiveClass = 1

type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Column describes one input column of the schema a model was trained on.
type Column struct {
	Name string
	Kind Kind
}

// Value is one cell of a single-row input.
type Value struct {
	Name     string
	Kind     Kind
	Number   float64
	Category string
}

// Row is a single tabular input whose cells follow the schema order.
type Row []Value

// Prediction is the model's own class decision together with the
// probability it assigns to the positive class.
type Prediction struct {
	Class       int
	Probability float64
}

// Model is a loaded, read-only classifier. Implementations must be safe for
// concurrent use.
type Model interface {
	ClassifyAndScore(row Row) (Prediction, error)
	Type() string
}

// Classifier scores an already encoded feature vector. Class indexes refer to
// positions in the artifact's class list.
type Classifier interface {
	PredictClass(features []float64) (int, error)
	PredictProba(features []float64) ([]float64, error)
	validate(width, classes int) error
}
