package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"termdeposit/client"
	"termdeposit/predict"
)

// Handler serves the prediction form and its JSON counterpart.
type Handler struct {
	service *predict.Service
	strict  bool
	logger  *zap.Logger
}

// NewHandler wires the prediction service into HTTP handlers. With strict
// set, categorical values outside their closed sets are rejected with 400.
func NewHandler(service *predict.Service, strict bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: service,
		strict:  strict,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleForm).Methods(http.MethodGet)
	r.HandleFunc("/", h.handleFormSubmit).Methods(http.MethodPost)
	r.HandleFunc("/api/predict", h.handlePredict).Methods(http.MethodPost)
	r.HandleFunc("/api/schema", h.handleSchema).Methods(http.MethodGet)
	r.HandleFunc("/api/health", handleHealth).Methods(http.MethodGet)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type schemaField struct {
	client.Field
	Kind string `json:"kind"`
}

func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	fields := make([]schemaField, len(client.Fields))
	for i, f := range client.Fields {
		fields[i] = schemaField{Field: f, Kind: f.KindName()}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"model_type": h.service.ModelType(),
		"fields":     fields,
	})
}

type predictResponse struct {
	Label           string  `json:"label"`
	Class           int     `json:"class"`
	Probability     float64 `json:"probability"`
	ProbabilityText string  `json:"probability_text"`
	Subscription    string  `json:"subscription"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	rec, err := client.DecodeJSON(r.Body)
	if bodyTooLarge(err) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
		return
	}
	if err == nil {
		err = rec.Validate(h.strict)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, invalidInput(err))
		return
	}

	res, err := h.service.Predict(r.Context(), rec)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "prediction failed"})
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		Label:           res.Label,
		Class:           res.Class,
		Probability:     res.Probability,
		ProbabilityText: res.ProbabilityText(),
		Subscription:    res.SubscriptionText(),
	})
}

func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func invalidInput(err error) errorResponse {
	fieldErrs := client.FieldErrors(err)
	if len(fieldErrs) == 0 || !errors.Is(err, client.ErrInvalidField) {
		return errorResponse{Error: err.Error()}
	}
	resp := errorResponse{Error: "invalid client record", Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		resp.Fields[fe.Field] = fe.Reason
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
