package predict

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termdeposit/client"
	"termdeposit/ml"
)

type fakeModel struct {
	mu    sync.Mutex
	pred  ml.Prediction
	err   error
	calls int
	rows  []ml.Row
}

func (f *fakeModel) ClassifyAndScore(row ml.Row) (ml.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.rows = append(f.rows, row)
	return f.pred, f.err
}

func (f *fakeModel) Type() string { return "fake" }

func scenarioRecord() client.Record {
	return client.Record{
		Age: 35, Job: "management", Marital: "married", Education: "tertiary",
		Default: "no", Balance: 1500, Housing: "yes", Loan: "no",
		Contact: "cellular", Month: "may", Duration: 200, Campaign: 1,
		Pdays: -1, Previous: 0, Poutcome: "unknown",
	}
}

var probabilityFormat = regexp.MustCompile(`^[01]\.\d\d$`)

func TestPredictLabels(t *testing.T) {
	tests := []struct {
		name  string
		pred  ml.Prediction
		label string
		text  string
	}{
		{"positive", ml.Prediction{Class: 1, Probability: 0.734}, LabelYes, "0.73"},
		{"negative", ml.Prediction{Class: 0, Probability: 0.036}, LabelNo, "0.04"},
		{"other class", ml.Prediction{Class: 2, Probability: 0.9}, LabelNo, "0.90"},
		// the label follows the model's class decision, not a threshold
		{"boundary negative", ml.Prediction{Class: 0, Probability: 0.5}, LabelNo, "0.50"},
		{"boundary positive", ml.Prediction{Class: 1, Probability: 0.5}, LabelYes, "0.50"},
		{"disagreeing model", ml.Prediction{Class: 1, Probability: 0.2}, LabelYes, "0.20"},
		{"clamped high", ml.Prediction{Class: 1, Probability: 1.0000001}, LabelYes, "1.00"},
		{"clamped low", ml.Prediction{Class: 0, Probability: -1e-9}, LabelNo, "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(&fakeModel{pred: tt.pred})
			require.NoError(t, err)

			res, err := svc.Predict(context.Background(), scenarioRecord())
			require.NoError(t, err)
			assert.Equal(t, tt.label, res.Label)
			assert.Equal(t, tt.pred.Class, res.Class)
			assert.Equal(t, tt.text, res.ProbabilityText())
			assert.Regexp(t, probabilityFormat, res.ProbabilityText())
			assert.Equal(t, "Subscription: "+tt.label, res.SubscriptionText())
			assert.Equal(t, "Probability of Subscription: "+tt.text, res.ProbabilityLine())
		})
	}
}

func TestPredictPassesSchemaRow(t *testing.T) {
	model := &fakeModel{pred: ml.Prediction{Class: 0, Probability: 0.1}}
	svc, err := NewService(model)
	require.NoError(t, err)

	_, err = svc.Predict(context.Background(), scenarioRecord())
	require.NoError(t, err)
	require.Len(t, model.rows, 1)
	assert.Equal(t, scenarioRecord().Row(), model.rows[0])
}

func TestPredictIsIdempotent(t *testing.T) {
	model, err := ml.LoadModel(ml.LoadConfig{ModelPath: "../model/bank_term_deposit_model.json"}, client.Schema())
	require.NoError(t, err)
	svc, err := NewService(model)
	require.NoError(t, err)

	first, err := svc.Predict(context.Background(), scenarioRecord())
	require.NoError(t, err)
	second, err := svc.Predict(context.Background(), scenarioRecord())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.ProbabilityText(), second.ProbabilityText())
	assert.Equal(t, LabelNo, first.Label)
	assert.Equal(t, "0.04", first.ProbabilityText())
}

func TestPredictShippedModelPositiveCase(t *testing.T) {
	model, err := ml.LoadModel(ml.LoadConfig{ModelPath: "../model/bank_term_deposit_model.json"}, client.Schema())
	require.NoError(t, err)
	svc, err := NewService(model)
	require.NoError(t, err)

	rec := scenarioRecord()
	rec.Duration = 1200
	rec.Month = "mar"
	rec.Poutcome = "success"
	res, err := svc.Predict(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, LabelYes, res.Label)
	assert.Equal(t, "0.99", res.ProbabilityText())
}

func TestPredictUnseenCategoryDoesNotFault(t *testing.T) {
	model, err := ml.LoadModel(ml.LoadConfig{ModelPath: "../model/bank_term_deposit_model.json"}, client.Schema())
	require.NoError(t, err)
	svc, err := NewService(model)
	require.NoError(t, err)

	rec := scenarioRecord()
	rec.Job = "astronaut"
	res, err := svc.Predict(context.Background(), rec)
	require.NoError(t, err)
	assert.Contains(t, []string{LabelYes, LabelNo}, res.Label)
	assert.Regexp(t, probabilityFormat, res.ProbabilityText())
}

func TestPredictModelError(t *testing.T) {
	svc, err := NewService(&fakeModel{err: errors.New("boom")})
	require.NoError(t, err)

	_, err = svc.Predict(context.Background(), scenarioRecord())
	assert.ErrorContains(t, err, "boom")
}

func TestPredictRejectsNonFiniteProbability(t *testing.T) {
	svc, err := NewService(&fakeModel{pred: ml.Prediction{Class: 1, Probability: math.NaN()}})
	require.NoError(t, err)

	_, err = svc.Predict(context.Background(), scenarioRecord())
	assert.Error(t, err)
}

func TestPredictCache(t *testing.T) {
	model := &fakeModel{pred: ml.Prediction{Class: 1, Probability: 0.6}}
	svc, err := NewService(model, WithCache(8))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res, err := svc.Predict(context.Background(), scenarioRecord())
		require.NoError(t, err)
		assert.Equal(t, LabelYes, res.Label)
	}
	assert.Equal(t, 1, model.calls)

	other := scenarioRecord()
	other.Age = 36
	_, err = svc.Predict(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, 2, model.calls)
}

func TestPredictErrorsAreNotCached(t *testing.T) {
	model := &fakeModel{err: errors.New("boom")}
	svc, err := NewService(model, WithCache(8))
	require.NoError(t, err)

	_, err = svc.Predict(context.Background(), scenarioRecord())
	require.Error(t, err)
	_, err = svc.Predict(context.Background(), scenarioRecord())
	require.Error(t, err)
	assert.Equal(t, 2, model.calls)
}

func TestPredictConcurrent(t *testing.T) {
	model, err := ml.LoadModel(ml.LoadConfig{ModelPath: "../model/bank_term_deposit_model.json"}, client.Schema())
	require.NoError(t, err)
	svc, err := NewService(model, WithCache(4))
	require.NoError(t, err)

	want, err := svc.Predict(context.Background(), scenarioRecord())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Result, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = svc.Predict(context.Background(), scenarioRecord())
		}(i)
	}
	wg.Wait()
	for _, res := range results {
		assert.Equal(t, want, res)
	}
}

func TestNewServiceRequiresModel(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}
