package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/templatefall/templatefall/internal/rule"
	"github.com/templatefall/templatefall/internal/store"
	"github.com/templatefall/templatefall/internal/validate"
)

// envelope is the uniform JSON response shape of the admin API.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// rulesPayload is the data body returned by every rule-list endpoint.
// Hash is the canonical content hash of the list, usable by clients
// as a version tag to detect concurrent edits.
type rulesPayload struct {
	Rules []rule.Rule `json:"rules"`
	Hash  string      `json:"hash,omitempty"`
}

func newRulesPayload(rules []rule.Rule) rulesPayload {
	hash, err := rule.ListHash(rules)
	if err != nil {
		// Hashing only fails on unserializable lists, which the
		// validator prevents; degrade to an unversioned payload.
		hash = ""
	}
	return rulesPayload{Rules: rules, Hash: hash}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// writeError maps domain errors onto transport codes:
// validation → 400, authorization → 403, not-found → 404, storage and
// everything else → 500 with a generic message (no internals leak).
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ve *validate.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, envelope{
			Success: false,
			Error:   &errorBody{Code: string(ve.Code), Message: ve.Error()},
		})
		return
	}

	if store.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, envelope{
			Success: false,
			Error:   &errorBody{Code: "NOT_FOUND", Message: "rule not found"},
		})
		return
	}

	logger.Error("admin request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, envelope{
		Success: false,
		Error:   &errorBody{Code: "STORAGE", Message: "operation failed"},
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusForbidden, envelope{
		Success: false,
		Error:   &errorBody{Code: "UNAUTHORIZED", Message: message},
	})
}
