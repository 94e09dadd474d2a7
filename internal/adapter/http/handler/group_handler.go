package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/herdpool/herdpool/internal/adapter/http/dto"
	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/usecase"
)

// GroupService defines the behavior needed by GroupHandler.
type GroupService interface {
	StartCreate(ctx context.Context, input usecase.StartCreateInput) (*domain.Group, error)
	CompleteCreate(ctx context.Context, input usecase.CompleteCreateInput) (*usecase.CompleteCreateResult, error)
	StartJoin(ctx context.Context, input usecase.StartJoinInput) (*usecase.StartJoinResult, error)
	CompleteJoin(ctx context.Context, input usecase.CompleteJoinInput) (*usecase.CompleteJoinResult, error)
	CancelDraft(ctx context.Context, groupID, userID string) error
	GetGroup(ctx context.Context, id string) (*domain.Group, error)
	ListGroups(ctx context.Context, input usecase.ListGroupsInput) ([]*domain.Group, error)
	ListParticipations(ctx context.Context, groupID string, limit, offset int) ([]*domain.Participation, error)
}

// GroupHandler handles group-related HTTP requests.
type GroupHandler struct {
	groupUC     GroupService
	callbackURL string
}

// NewGroupHandler creates a new GroupHandler. callbackURL is where the
// gateway redirects the payer after checkout.
func NewGroupHandler(groupUC GroupService, callbackURL string) *GroupHandler {
	return &GroupHandler{groupUC: groupUC, callbackURL: callbackURL}
}

// StartCreate drafts a group.
func (h *GroupHandler) StartCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.StartCreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	fillUserID(r.Context(), &req.CreatorID)
	if req.CreatorID == "" {
		writeError(w, http.StatusBadRequest, "missing creator ID", "")
		return
	}

	group, err := h.groupUC.StartCreate(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to draft group", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.GroupFromDomain(group))
}

// CompleteCreate settles the creator's slots and activates the group.
func (h *GroupHandler) CompleteCreate(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	var req dto.CompleteCreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	fillUserID(r.Context(), &req.CreatorID)

	result, err := h.groupUC.CompleteCreate(r.Context(), req.ToUseCaseInput(groupID, h.callbackURL))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to complete group", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, completeCreateResponse(result))
}

// StartJoin stages a join against an active group.
func (h *GroupHandler) StartJoin(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	var req dto.StartJoinGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	fillUserID(r.Context(), &req.UserID)

	result, err := h.groupUC.StartJoin(r.Context(), req.ToUseCaseInput(groupID, h.callbackURL))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to stage join", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, dto.StartJoinResponse{
		Reference:   result.Reference,
		RedirectURL: result.RedirectURL,
	})
}

// CompleteJoin settles a staged join.
func (h *GroupHandler) CompleteJoin(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	var req dto.CompleteJoinGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	fillUserID(r.Context(), &req.UserID)

	result, err := h.groupUC.CompleteJoin(r.Context(), req.ToUseCaseInput(groupID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to complete join", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CompleteJoinResponse{
		Participation: dto.ParticipationFromDomain(result.Participation),
		Group:         dto.GroupFromDomain(result.Group),
	})
}

// Cancel deletes a still-pending group.
func (h *GroupHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	userID := r.URL.Query().Get("user_id")
	fillUserID(r.Context(), &userID)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	if err := h.groupUC.CancelDraft(r.Context(), groupID, userID); err != nil {
		writeError(w, mapDomainError(err), "failed to cancel group", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get retrieves a group by ID.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	group, err := h.groupUC.GetGroup(r.Context(), groupID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get group", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.GroupFromDomain(group))
}

// List lists groups, optionally filtered by status.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupUC.ListGroups(r.Context(), usecase.ListGroupsInput{
		Status: domain.GroupStatus(r.URL.Query().Get("status")),
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list groups", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListGroupsResponse{
		Groups: dto.GroupsFromDomain(groups),
		Total:  int64(len(groups)),
	})
}

// ListParticipations lists a group's participations.
func (h *GroupHandler) ListParticipations(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	participations, err := h.groupUC.ListParticipations(r.Context(), groupID,
		parseIntQuery(r, "limit", 20),
		parseIntQuery(r, "offset", 0),
	)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list participations", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ParticipationsFromDomain(participations))
}

// fillUserID substitutes the authenticated user's ID when the field is unset.
// The identity middleware is optional, so bodies may carry the ID explicitly.
func fillUserID(ctx context.Context, id *string) {
	if *id != "" {
		return
	}
	if user, ok := domain.UserFromContext(ctx); ok {
		*id = user.ID
	}
}

func completeCreateResponse(result *usecase.CompleteCreateResult) dto.CompleteCreateResponse {
	resp := dto.CompleteCreateResponse{
		Group:       dto.GroupFromDomain(result.Group),
		Reference:   result.Reference,
		RedirectURL: result.RedirectURL,
	}
	if result.Participation != nil {
		resp.Participation = dto.ParticipationFromDomain(result.Participation)
	}
	return resp
}
