package handler

import (
	"context"
	"errors"

	"github.com/VladGeana/radar/internal/broker"
	"github.com/VladGeana/radar/internal/ierr"
	"github.com/VladGeana/radar/internal/presence"
	"github.com/VladGeana/radar/internal/warning"
)

type QueryPendingRequest struct {
	Kind presence.IdentityKind `json:"kind"`
	Name string                `json:"name"`
}

type QueryPendingResponse struct {
	Warnings []warning.Warning `json:"warnings"`
	Count    int               `json:"count"`
}

type QueryPendingHandlerInterface interface {
	Handle(ctx context.Context, req QueryPendingRequest) (QueryPendingResponse, error)
}

type QueryPendingHandler struct {
	nameValidator      *NameValidator
	notificationBroker *broker.Broker
}

func NewQueryPendingHandler(
	nameValidator *NameValidator,
	notificationBroker *broker.Broker,
) *QueryPendingHandler {
	return &QueryPendingHandler{
		nameValidator,
		notificationBroker,
	}
}

func (h *QueryPendingHandler) Handle(ctx context.Context, req QueryPendingRequest) (QueryPendingResponse, error) {
	if !req.Kind.Valid() {
		return QueryPendingResponse{},
			ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("unknown identity kind"))
	}

	err := h.nameValidator.Validate(req.Name)
	if err != nil {
		return QueryPendingResponse{}, err
	}

	// Non-draining peek. An empty result means nothing pending, which is
	// a normal outcome.
	warnings := h.notificationBroker.QueryPending(req.Kind, req.Name)

	return QueryPendingResponse{
		Warnings: warnings,
		Count:    len(warnings),
	}, nil
}
