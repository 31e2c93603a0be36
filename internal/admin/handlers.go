package admin

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/templatefall/templatefall/internal/resolver"
	"github.com/templatefall/templatefall/internal/rule"
	"github.com/templatefall/templatefall/internal/validate"
)

func (s *Server) handleNonce(w http.ResponseWriter, r *http.Request) {
	nonce, expires := s.auth.IssueNonce(bearerToken(r))
	writeData(w, map[string]string{
		"nonce":      nonce,
		"expires_at": expires.UTC().Format(time.RFC3339),
	})
}

// handleListRules returns the ordered rule list. The read triggers
// the store's lazy initialization, so a brand-new install answers
// with the single inert rule.
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.store.GetAll(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeData(w, newRulesPayload(rules))
}

// handleAddRule appends one inert rule at the end of the list with
// priority equal to the current list length, and returns the updated
// list.
func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	current, err := s.store.GetAll(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	added := rule.Inert()
	added.Priority = len(current)

	updated, err := s.store.Append(r.Context(), added)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeData(w, newRulesPayload(updated))
}

// handleDeleteRule removes the rule at the submitted position.
// Out-of-range positions answer 404 with the list untouched.
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Index *int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Index == nil {
		writeError(w, s.logger, &validate.ValidationError{
			Code: validate.ErrCodeBadPayload, Index: -1,
			Message: "index is required",
		})
		return
	}

	updated, err := s.store.RemoveAt(r.Context(), *body.Index)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeData(w, newRulesPayload(updated))
}

// handleUpdateRules is the bulk save path: sanitize, validate the
// whole batch, then one atomic replace-all. Any violation rejects the
// batch and leaves the stored list untouched.
func (s *Server) handleUpdateRules(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	entries, err := validate.ParseBatch(payload)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	rules, err := validate.ValidateBatch(entries, s.directory)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	if err := s.store.ReplaceAll(r.Context(), rules); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeData(w, newRulesPayload(rules))
}

// handleResetRules replaces the whole list with the single default
// inert rule.
func (s *Server) handleResetRules(w http.ResponseWriter, r *http.Request) {
	reset, err := s.store.Reset(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeData(w, newRulesPayload(reset))
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.GetEnabledCategories(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeData(w, map[string]any{"enabled_types": cats})
}

// handleUpdateSettings intersects the submitted tags with the closed
// category enumeration and stores the result. Unknown tags are
// dropped, never an error.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EnabledTypes []string `json:"enabled_types"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, s.logger, &validate.ValidationError{
			Code: validate.ErrCodeBadPayload, Index: -1,
			Message: "enabled_types must be a JSON array of strings",
		})
		return
	}

	cats := validate.SanitizeCategories(body.EnabledTypes)
	if err := s.store.SetEnabledCategories(r.Context(), cats); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeData(w, map[string]any{"enabled_types": cats})
}

// handleTeardown deletes both persisted values. The uninstall path:
// after it, the next read lazily re-initializes defaults.
func (s *Server) handleTeardown(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Teardown(r.Context()); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeData(w, map[string]string{"status": "removed"})
}

// resolveRequest is the transport form of the host integration hook.
type resolveRequest struct {
	ActiveTemplates map[string]int `json:"active_templates"`
	Kind            string         `json:"kind"`
	Item            struct {
		ID       int    `json:"id"`
		PostType string `json:"post_type"`
		TermIDs  []int  `json:"term_ids"`
	} `json:"item"`
	Viewer struct {
		Authenticated bool     `json:"authenticated"`
		Capabilities  []string `json:"capabilities"`
	} `json:"viewer"`
	HasNativeContent bool `json:"has_native_content"`
	IsBuilderEditing bool `json:"is_builder_editing"`
}

// handleResolve runs one resolution for an out-of-process host and
// returns the (possibly substituted) active-template mapping.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, &validate.ValidationError{
			Code: validate.ErrCodeBadPayload, Index: -1,
			Message: "malformed resolve request",
		})
		return
	}
	if req.ActiveTemplates == nil {
		req.ActiveTemplates = map[string]int{}
	}

	active := s.resolver.ApplyActiveTemplates(r.Context(), resolver.RenderRequest{
		ActiveTemplates: req.ActiveTemplates,
		Kind:            req.Kind,
		Item: rule.Item{
			ID:       req.Item.ID,
			PostType: req.Item.PostType,
			TermIDs:  req.Item.TermIDs,
		},
		Viewer: rule.Viewer{
			Authenticated: req.Viewer.Authenticated,
			Capabilities:  req.Viewer.Capabilities,
		},
		HasNativeContent: req.HasNativeContent,
		IsBuilderEditing: req.IsBuilderEditing,
	})

	writeData(w, map[string]any{"active_templates": active})
}
