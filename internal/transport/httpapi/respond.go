package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"SiteForge/internal/domain"
)

type errorResponse struct {
	OK               bool     `json:"ok"`
	Error            string   `json:"error"`
	Message          string   `json:"message"`
	Score            *int     `json:"score,omitempty"`
	Issues           []string `json:"issues,omitempty"`
	Suggestions      []string `json:"suggestions,omitempty"`
	ServerVersionTag *string  `json:"serverVersionTag,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(code domain.Code) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeConflict, domain.CodePageExists:
		return http.StatusConflict
	case domain.CodeQualityExhausted:
		return http.StatusUnprocessableEntity
	case domain.CodeUpstream, domain.CodeMalformedPayload:
		return http.StatusBadGateway
	case domain.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorBody renders the failure shape shared by every endpoint.
func errorBody(err error) (int, errorResponse) {
	code := domain.CodeOf(err)
	body := errorResponse{Error: string(code), Message: err.Error()}

	var (
		exhausted *domain.QualityExhaustedError
		conflict  *domain.ConflictError
	)
	if errors.As(err, &exhausted) {
		score := exhausted.Verdict.Score
		body.Score = &score
		body.Issues = exhausted.Verdict.Issues
		body.Suggestions = exhausted.Verdict.Suggestions
	}
	if errors.As(err, &conflict) {
		tag := conflict.ServerVersionTag
		body.ServerVersionTag = &tag
	}
	if code == domain.CodeInternal {
		body.Message = "internal error"
	}
	return statusFor(code), body
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "code", body.Error, "error", err)
	} else {
		s.logger.Info("request rejected", "path", r.URL.Path, "code", body.Error, "error", err)
	}
	writeJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "is not valid JSON: " + err.Error()}
	}
	return nil
}
