package handler

import (
	"context"
	"errors"

	"github.com/VladGeana/radar/internal/broker"
	"github.com/VladGeana/radar/internal/ierr"
	"github.com/VladGeana/radar/internal/presence"
)

type ClearPendingRequest struct {
	Kind presence.IdentityKind `json:"kind"`
	Name string                `json:"name"`
}

type ClearPendingResponse struct {
	Cleared int `json:"cleared"`
}

type ClearPendingHandlerInterface interface {
	Handle(ctx context.Context, req ClearPendingRequest) (ClearPendingResponse, error)
}

type ClearPendingHandler struct {
	nameValidator      *NameValidator
	notificationBroker *broker.Broker
}

func NewClearPendingHandler(
	nameValidator *NameValidator,
	notificationBroker *broker.Broker,
) *ClearPendingHandler {
	return &ClearPendingHandler{
		nameValidator,
		notificationBroker,
	}
}

func (h *ClearPendingHandler) Handle(ctx context.Context, req ClearPendingRequest) (ClearPendingResponse, error) {
	if !req.Kind.Valid() {
		return ClearPendingResponse{},
			ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("unknown identity kind"))
	}

	err := h.nameValidator.Validate(req.Name)
	if err != nil {
		return ClearPendingResponse{}, err
	}

	return ClearPendingResponse{
		Cleared: h.notificationBroker.ClearPending(req.Kind, req.Name),
	}, nil
}
