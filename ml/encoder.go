package ml

import (
	"fmt"
)

const (
	TransformOneHot      = "onehot"
	TransformStandard    = "standard"
	TransformPassthrough = "passthrough"
)

// Transformer is one column transformer of the artifact's encoder. The encoded
// vector is the concatenation of every transformer's output, in order.
type Transformer struct {
	Kind       string     `json:"kind"`
	Columns    []string   `json:"columns"`
	Categories [][]string `json:"categories,omitempty"`
	Mean       []float64  `json:"mean,omitempty"`
	Scale      []float64  `json:"scale,omitempty"`
}

type encodeStep struct {
	kind   string
	column int
	offset int
	index  map[string]int
	mean   float64
	scale  float64
}

// Encoder turns a Row into the numeric feature vector the classifier expects.
// Unknown categories encode to an all-zero one-hot block.
type Encoder struct {
	schema []Column
	steps  []encodeStep
	width  int
}

// NewEncoder compiles transformers against schema. Every schema column must be
// covered exactly once and by a transformer of the matching kind.
func NewEncoder(schema []Column, transformers []Transformer) (*Encoder, error) {
	positions := make(map[string]int, len(schema))
	for i, col := range schema {
		positions[col.Name] = i
	}

	enc := &Encoder{schema: schema}
	seen := make(map[string]bool, len(schema))
	for ti, t := range transformers {
		for ci, name := range t.Columns {
			pos, ok := positions[name]
			if !ok {
				return nil, fmt.Errorf("%w: transformer %d: unknown column %q", ErrSchemaMismatch, ti, name)
			}
			if seen[name] {
				return nil, fmt.Errorf("%w: column %q encoded twice", ErrSchemaMismatch, name)
			}
			seen[name] = true

			step := encodeStep{kind: t.Kind, column: pos, offset: enc.width}
			switch t.Kind {
			case TransformOneHot:
				if schema[pos].Kind != Categorical {
					return nil, fmt.Errorf("%w: onehot on numeric column %q", ErrSchemaMismatch, name)
				}
				if len(t.Categories) != len(t.Columns) {
					return nil, fmt.Errorf("transformer %d: %d category lists for %d columns", ti, len(t.Categories), len(t.Columns))
				}
				if len(t.Categories[ci]) == 0 {
					return nil, fmt.Errorf("transformer %d: no categories for %q", ti, name)
				}
				step.index = make(map[string]int, len(t.Categories[ci]))
				for k, cat := range t.Categories[ci] {
					step.index[cat] = k
				}
				enc.width += len(t.Categories[ci])
			case TransformStandard:
				if schema[pos].Kind != Numeric {
					return nil, fmt.Errorf("%w: standard scaling on categorical column %q", ErrSchemaMismatch, name)
				}
				if len(t.Mean) != len(t.Columns) || len(t.Scale) != len(t.Columns) {
					return nil, fmt.Errorf("transformer %d: mean/scale length does not match columns", ti)
				}
				step.mean = t.Mean[ci]
				step.scale = t.Scale[ci]
				if step.scale == 0 {
					step.scale = 1
				}
				enc.width++
			case TransformPassthrough:
				if schema[pos].Kind != Numeric {
					return nil, fmt.Errorf("%w: passthrough on categorical column %q", ErrSchemaMismatch, name)
				}
				enc.width++
			default:
				return nil, fmt.Errorf("transformer %d: unknown kind %q", ti, t.Kind)
			}
			enc.steps = append(enc.steps, step)
		}
	}

	for _, col := range schema {
		if !seen[col.Name] {
			return nil, fmt.Errorf("%w: column %q is not encoded", ErrSchemaMismatch, col.Name)
		}
	}
	return enc, nil
}

// Width is the length of the encoded feature vector.
func (e *Encoder) Width() int {
	return e.width
}

// Encode checks row against the schema and returns its feature vector.
func (e *Encoder) Encode(row Row) ([]float64, error) {
	if len(row) != len(e.schema) {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrSchemaMismatch, len(row), len(e.schema))
	}
	for i, col := range e.schema {
		if row[i].Name != col.Name || row[i].Kind != col.Kind {
			return nil, fmt.Errorf("%w: position %d is %s %q, want %s %q",
				ErrSchemaMismatch, i, row[i].Kind, row[i].Name, col.Kind, col.Name)
		}
	}

	out := make([]float64, e.width)
	for _, step := range e.steps {
		v := row[step.column]
		switch step.kind {
		case TransformOneHot:
			if k, ok := step.index[v.Category]; ok {
				out[step.offset+k] = 1
			}
		case TransformStandard:
			out[step.offset] = (v.Number - step.mean) / step.scale
		case TransformPassthrough:
			out[step.offset] = v.Number
		}
	}
	return out, nil
}
