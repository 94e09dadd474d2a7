package handler

import (
	"context"
	"net/http"

	"github.com/herdpool/herdpool/internal/adapter/http/dto"
	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/usecase"
)

// PaymentService defines the behavior needed by PaymentHandler.
type PaymentService interface {
	GetIntent(ctx context.Context, reference string) (*domain.PaymentIntent, error)
}

// PaymentHandler lands the gateway redirect. The reference tells us which
// staged action to complete; the settlement itself goes through the same
// orchestrator paths as a direct completion call.
type PaymentHandler struct {
	paymentUC PaymentService
	groupUC   GroupService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentUC PaymentService, groupUC GroupService) *PaymentHandler {
	return &PaymentHandler{paymentUC: paymentUC, groupUC: groupUC}
}

// Callback completes the pending action behind a gateway reference.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		reference = r.URL.Query().Get("trxref")
	}
	if reference == "" {
		writeError(w, http.StatusBadRequest, "missing reference", "")
		return
	}

	intent, err := h.paymentUC.GetIntent(r.Context(), reference)
	if err != nil {
		writeError(w, mapDomainError(err), "unknown payment", err.Error())
		return
	}

	switch intent.Action {
	case domain.IntentActionCreateGroup:
		result, err := h.groupUC.CompleteCreate(r.Context(), usecase.CompleteCreateInput{
			GroupID:   intent.GroupID,
			CreatorID: intent.UserID,
			Email:     intent.Email,
			Method:    domain.FundingMethodPaystack,
			Reference: intent.Reference,
		})
		if err != nil {
			writeError(w, mapDomainError(err), "failed to complete group", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, completeCreateResponse(result))

	case domain.IntentActionJoinGroup:
		result, err := h.groupUC.CompleteJoin(r.Context(), usecase.CompleteJoinInput{
			GroupID:   intent.GroupID,
			UserID:    intent.UserID,
			Reference: intent.Reference,
		})
		if err != nil {
			writeError(w, mapDomainError(err), "failed to complete join", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, dto.CompleteJoinResponse{
			Participation: dto.ParticipationFromDomain(result.Participation),
			Group:         dto.GroupFromDomain(result.Group),
		})

	default:
		writeError(w, http.StatusBadRequest, "unknown payment action", string(intent.Action))
	}
}
