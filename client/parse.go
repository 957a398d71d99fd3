package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"termdeposit/ml"
)

// ErrInvalidField is wrapped by every FieldError.
var ErrInvalidField = errors.New("invalid field")

// MaxMagnitude bounds numeric inputs so encoded features and linear decision
// functions stay finite.
const MaxMagnitude = 1e9

// FieldError reports one rejected input field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidField
}

// FieldErrors flattens an error returned by ParseForm, DecodeJSON or
// Validate into its per-field errors.
func FieldErrors(err error) []*FieldError {
	var out []*FieldError
	for _, e := range multierr.Errors(err) {
		var fe *FieldError
		if errors.As(e, &fe) {
			out = append(out, fe)
		}
	}
	return out
}

// ParseForm builds a record from submitted form values. Every field must be
// present and numeric fields must parse as finite reals. All field errors are
// returned together.
func ParseForm(values url.Values) (Record, error) {
	var (
		rec  Record
		errs error
	)
	for _, f := range Fields {
		raw := strings.TrimSpace(values.Get(f.Name))
		if raw == "" {
			errs = multierr.Append(errs, &FieldError{Field: f.Name, Reason: "is required"})
			continue
		}
		if f.Kind == ml.Numeric {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				errs = multierr.Append(errs, &FieldError{Field: f.Name, Reason: "must be a number"})
				continue
			}
			rec.setNumber(f.Name, v)
			continue
		}
		rec.setCategory(f.Name, raw)
	}
	return rec, errs
}

// DecodeJSON reads a record from a JSON object keyed by schema field names.
// Unlike plain unmarshalling, a missing key is an error rather than a zero.
func DecodeJSON(r io.Reader) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&fields); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}

	var (
		rec  Record
		errs error
	)
	for _, f := range Fields {
		raw, ok := fields[f.Name]
		if !ok || string(raw) == "null" {
			errs = multierr.Append(errs, &FieldError{Field: f.Name, Reason: "is required"})
			continue
		}
		if f.Kind == ml.Numeric {
			var v float64
			if err := json.Unmarshal(raw, &v); err != nil {
				errs = multierr.Append(errs, &FieldError{Field: f.Name, Reason: "must be a number"})
				continue
			}
			rec.setNumber(f.Name, v)
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			errs = multierr.Append(errs, &FieldError{Field: f.Name, Reason: "must be a string"})
			continue
		}
		rec.setCategory(f.Name, strings.TrimSpace(s))
	}
	return rec, errs
}

// Validate checks that every field is present and well typed. With strict
// set, categorical values outside their closed set are rejected; otherwise
// they are passed to the model as unseen categories.
func (r Record) Validate(strict bool) error {
	var errs error
	for _, f := range Fields {
		if f.Kind != ml.Numeric {
			continue
		}
		v := r.number(f.Name)
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			errs = multierr.Append(errs, &FieldError{Field: f.Name, Reason: "must be a finite number"})
		case math.Abs(v) > MaxMagnitude:
			errs = multierr.Append(errs, &FieldError{Field: f.Name, Reason: "is out of range"})
		}
	}
	for _, c := range r.categories() {
		switch {
		case c.value == "":
			errs = multierr.Append(errs, &FieldError{Field: c.name, Reason: "is required"})
		case strict && !c.valid:
			errs = multierr.Append(errs, &FieldError{Field: c.name, Reason: fmt.Sprintf("unknown value %q", c.value)})
		}
	}
	return errs
}

func (r Record) number(name string) float64 {
	switch name {
	case FieldAge:
		return r.Age
	case FieldBalance:
		return r.Balance
	case FieldDuration:
		return r.Duration
	case FieldCampaign:
		return r.Campaign
	case FieldPdays:
		return r.Pdays
	case FieldPrevious:
		return r.Previous
	}
	return 0
}
