// Package client holds the Client Record scored by the term deposit model:
// its fixed 15-column schema, closed categorical domains, and parsing from
// form and JSON input.
package client

import (
	"termdeposit/ml"
)

const (
	FieldAge       = "age"
	FieldJob       = "job"
	FieldMarital   = "marital"
	FieldEducation = "education"
	FieldDefault   = "default"
	FieldBalance   = "balance"
	FieldHousing   = "housing"
	FieldLoan      = "loan"
	FieldContact   = "contact"
	FieldMonth     = "month"
	FieldDuration  = "duration"
	FieldCampaign  = "campaign"
	FieldPdays     = "pdays"
	FieldPrevious  = "previous"
	FieldPoutcome  = "poutcome"
)

// Widget is the form control used for a field.
type Widget string

const (
	WidgetNumber Widget = "number"
	WidgetSelect Widget = "select"
	WidgetRadio  Widget = "radio"
)

// Field describes one schema column and how the form presents it.
type Field struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Kind    ml.Kind  `json:"-"`
	Widget  Widget   `json:"widget"`
	Options []string `json:"options,omitempty"`
}

var (
	JobValues       = []string{"admin.", "unknown", "unemployed", "management", "housemaid", "entrepreneur", "student", "blue-collar", "self-employed", "retired", "technician", "services"}
	MaritalValues   = []string{"married", "divorced", "single"}
	EducationValues = []string{"unknown", "secondary", "primary", "tertiary"}
	YesNoValues     = []string{"yes", "no"}
	ContactValues   = []string{"unknown", "telephone", "cellular"}
	MonthValues     = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
	PoutcomeValues  = []string{"unknown", "other", "failure", "success"}
)

// Fields lists the schema in the exact order the model was trained on.
var Fields = []Field{
	{Name: FieldAge, Label: "Age", Kind: ml.Numeric, Widget: WidgetNumber},
	{Name: FieldJob, Label: "Job", Kind: ml.Categorical, Widget: WidgetSelect, Options: JobValues},
	{Name: FieldMarital, Label: "Marital Status", Kind: ml.Categorical, Widget: WidgetSelect, Options: MaritalValues},
	{Name: FieldEducation, Label: "Education", Kind: ml.Categorical, Widget: WidgetSelect, Options: EducationValues},
	{Name: FieldDefault, Label: "Has Credit in Default?", Kind: ml.Categorical, Widget: WidgetRadio, Options: YesNoValues},
	{Name: FieldBalance, Label: "Balance", Kind: ml.Numeric, Widget: WidgetNumber},
	{Name: FieldHousing, Label: "Has Housing Loan?", Kind: ml.Categorical, Widget: WidgetRadio, Options: YesNoValues},
	{Name: FieldLoan, Label: "Has Personal Loan?", Kind: ml.Categorical, Widget: WidgetRadio, Options: YesNoValues},
	{Name: FieldContact, Label: "Contact Communication Type", Kind: ml.Categorical, Widget: WidgetSelect, Options: ContactValues},
	{Name: FieldMonth, Label: "Last Contact Month", Kind: ml.Categorical, Widget: WidgetSelect, Options: MonthValues},
	{Name: FieldDuration, Label: "Duration (seconds)", Kind: ml.Numeric, Widget: WidgetNumber},
	{Name: FieldCampaign, Label: "Number of Contacts During Campaign", Kind: ml.Numeric, Widget: WidgetNumber},
	{Name: FieldPdays, Label: "Number of Days Since Last Contact (-1 means never contacted)", Kind: ml.Numeric, Widget: WidgetNumber},
	{Name: FieldPrevious, Label: "Number of Contacts Before Campaign", Kind: ml.Numeric, Widget: WidgetNumber},
	{Name: FieldPoutcome, Label: "Outcome of Previous Campaign", Kind: ml.Categorical, Widget: WidgetSelect, Options: PoutcomeValues},
}

// Schema returns the model input columns derived from Fields.
func Schema() []ml.Column {
	cols := make([]ml.Column, len(Fields))
	for i, f := range Fields {
		cols[i] = ml.Column{Name: f.Name, Kind: f.Kind}
	}
	return cols
}

// KindName is the JSON-friendly kind of the field.
func (f Field) KindName() string {
	return f.Kind.String()
}
