package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"termdeposit/client"
)

const (
	formTitle       = "Bank Term Deposit Prediction"
	formDescription = "Provide client and campaign details to predict whether the client will subscribe to a term deposit."
)

//go:embed templates/form.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/form.html"))

type choice struct {
	Value    string
	Title    string
	Selected bool
}

type formField struct {
	Name    string
	Label   string
	Widget  string
	Value   string
	Error   string
	Choices []choice
}

type formPage struct {
	Title        string
	Description  string
	Fields       []formField
	Subscription string
	Probability  string
	Error        string
}

// newFormPage lays out every schema field with the submitted values and
// per-field errors.
func newFormPage(values map[string]string, fieldErrs map[string]string) formPage {
	title := cases.Title(language.English)
	page := formPage{Title: formTitle, Description: formDescription}
	for _, f := range client.Fields {
		ff := formField{
			Name:   f.Name,
			Label:  f.Label,
			Widget: string(f.Widget),
			Value:  values[f.Name],
			Error:  fieldErrs[f.Name],
		}
		for _, opt := range f.Options {
			ff.Choices = append(ff.Choices, choice{
				Value:    opt,
				Title:    title.String(opt),
				Selected: opt == values[f.Name],
			})
		}
		page.Fields = append(page.Fields, ff)
	}
	return page
}

func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, http.StatusOK, newFormPage(nil, nil))
}

func (h *Handler) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		page := newFormPage(nil, nil)
		status := http.StatusBadRequest
		page.Error = "could not read the submitted form"
		if bodyTooLarge(err) {
			status = http.StatusRequestEntityTooLarge
			page.Error = "submitted form is too large"
		}
		h.renderForm(w, status, page)
		return
	}

	values := make(map[string]string, len(client.Fields))
	for _, f := range client.Fields {
		values[f.Name] = r.PostForm.Get(f.Name)
	}

	rec, err := client.ParseForm(r.PostForm)
	if err == nil {
		err = rec.Validate(h.strict)
	}
	if err != nil {
		resp := invalidInput(err)
		page := newFormPage(values, resp.Fields)
		page.Error = resp.Error
		h.renderForm(w, http.StatusBadRequest, page)
		return
	}

	page := newFormPage(values, nil)
	res, err := h.service.Predict(r.Context(), rec)
	if err != nil {
		page.Error = "prediction failed"
		h.renderForm(w, http.StatusInternalServerError, page)
		return
	}
	page.Subscription = res.SubscriptionText()
	page.Probability = res.ProbabilityLine()
	h.renderForm(w, http.StatusOK, page)
}

func (h *Handler) renderForm(w http.ResponseWriter, status int, page formPage) {
	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, page); err != nil {
		h.logger.Error("render form", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
