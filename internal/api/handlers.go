package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/enviro-impact/internal/model"
)

// errorBody is the JSON error envelope. Field and Value are set for input
// errors only.
type errorBody struct {
	Detail string  `json:"detail"`
	Field  *string `json:"field,omitempty"`
	Value  *string `json:"value,omitempty"`
}

type handlers struct {
	est     Estimator
	maxBody int64
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) regions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"regions": h.est.Regions()})
}

func (h *handlers) facilityTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"facility_types": h.est.FacilityTypes()})
}

func (h *handlers) calculate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.est.Estimate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeRequest(body io.Reader) (model.Request, error) {
	var req model.Request
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, decodeError(err)
	}
	if dec.More() {
		return req, model.NewInputError("body", "", "request body must contain a single JSON object")
	}
	return req, nil
}

// decodeError maps a JSON decoding failure onto an InputError naming the
// offending field where the decoder reports one.
func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		// typeErr.Value is the JSON kind received, not the caller's value.
		return model.NewInputError(typeErr.Field, "", typeErr.Field+" must be of type "+typeErr.Type.String()+", got "+typeErr.Value)
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return model.NewInputError("body", "", "request body too large")
	}

	msg := err.Error()
	if name, ok := strings.CutPrefix(msg, "json: unknown field "); ok {
		name = strings.Trim(name, `"`)
		return model.NewInputError(name, "", "unknown field: "+name)
	}
	if errors.Is(err, io.EOF) {
		return model.NewInputError("body", "", "request body is empty")
	}
	return model.NewInputError("body", "", "invalid request body: "+msg)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ie *model.InputError
	if errors.As(err, &ie) {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Detail: ie.Error(),
			Field:  &ie.Field,
			Value:  &ie.Value,
		})
		return
	}

	detail := "internal server error"
	var de *model.DataError
	if errors.As(err, &de) {
		detail = de.Error()
	}
	zap.L().Error("api: calculate failed",
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, errorBody{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}
