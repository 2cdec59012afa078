package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/navicore/specsvc/internal/app"
	"github.com/navicore/specsvc/internal/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type handlers struct {
	svc    *app.Service
	logger *slog.Logger
}

func (h *handlers) createSpec(w http.ResponseWriter, r *http.Request) {
	var req createSpecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, &domain.ValidationError{Kind: domain.EmptyContent, Message: "malformed request body"})
		return
	}

	env, err := h.svc.CreateSpec(r.Context(), domain.CreateSpecCommand{
		Name:        req.Name,
		Content:     req.Content,
		Description: req.Description,
		Ctx:         commandContext(r),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSpecResponse{ID: env.AggregateID.String(), Version: 1})
}

func (h *handlers) listSpecs(w http.ResponseWriter, r *http.Request) {
	state, ok := stateFromQuery(r.URL.Query().Get("state"))
	if !ok {
		writeError(w, h.logger, &domain.ValidationError{Kind: domain.InvalidCharacters, Message: "unrecognized state"})
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}

	specs, total, err := h.svc.ListSpecs(r.Context(), state, limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	summaries := make([]specSummary, len(specs))
	for i, s := range specs {
		summaries[i] = specSummaryFrom(s)
	}
	writeJSON(w, http.StatusOK, listSpecsResponse{Specs: summaries, Total: total, Limit: limit, Offset: offset})
}

func (h *handlers) getSpec(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	spec, err := h.svc.GetSpec(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, specResponseFrom(spec))
}

func (h *handlers) updateSpec(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req updateSpecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, &domain.ValidationError{Kind: domain.EmptyContent, Message: "malformed request body"})
		return
	}

	env, err := h.svc.UpdateSpec(r.Context(), id, domain.UpdateSpecCommand{
		Content:     req.Content,
		Description: req.Description,
		Ctx:         commandContext(r),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	updated := env.Event.(domain.Updated)
	writeJSON(w, http.StatusOK, updateSpecResponse{Version: updated.Version.Int()})
}

func (h *handlers) publishSpec(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req publishSpecRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, h.logger, &domain.ValidationError{Kind: domain.EmptyContent, Message: "malformed request body"})
			return
		}
	}

	_, err = h.svc.PublishSpec(r.Context(), id, domain.PublishSpecCommand{
		Version: req.Version,
		Ctx:     commandContext(r),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handlers) deprecateSpec(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req deprecateSpecRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, h.logger, &domain.ValidationError{Kind: domain.EmptyContent, Message: "malformed request body"})
			return
		}
	}

	_, err = h.svc.DeprecateSpec(r.Context(), id, domain.DeprecateSpecCommand{
		Reason: req.Reason,
		Ctx:    commandContext(r),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handlers) getSpecVersion(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	version, err := strconv.Atoi(r.PathValue("version"))
	if err != nil {
		writeError(w, h.logger, &domain.ValidationError{Kind: domain.InvalidCharacters, Message: "version must be an integer"})
		return
	}

	entry, err := h.svc.GetSpecVersion(r.Context(), id, version)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, versionResponseFrom(entry))
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.UUID{}, &domain.ValidationError{Kind: domain.InvalidCharacters, Message: "id must be a uuid"}
	}
	return id, nil
}

// stubPrincipalID stands in for an authenticated caller's identity.
// Authentication is an explicit non-goal; every command is attributed to
// this fixed principal until one is added.
const stubPrincipalID = "system"

func commandContext(r *http.Request) domain.CommandContext {
	return domain.CommandContext{
		PrincipalID:   stubPrincipalID,
		CorrelationID: r.Header.Get("X-Correlation-ID"),
	}
}
