package handler

import (
	"context"
	"errors"
	"time"

	"github.com/VladGeana/radar/internal/broker"
	"github.com/VladGeana/radar/internal/ierr"
	"github.com/VladGeana/radar/internal/warning"
)

type SubmitWarningRequest struct {
	Recipient     string   `json:"recipient"`
	ExposureDates []string `json:"exposureDates"`
	Room          string   `json:"room"`
	Visitor       string   `json:"visitor,omitempty"`
}

type SubmitWarningResponse struct {
	Outcome   broker.Outcome `json:"outcome"`
	WarningId string         `json:"warningId"`
	Timestamp time.Time      `json:"timestamp"`
}

type SubmitWarningHandlerInterface interface {
	Handle(ctx context.Context, req SubmitWarningRequest) (SubmitWarningResponse, error)
}

type SubmitWarningHandler struct {
	nameValidator      *NameValidator
	notificationBroker *broker.Broker
}

func NewSubmitWarningHandler(
	nameValidator *NameValidator,
	notificationBroker *broker.Broker,
) *SubmitWarningHandler {
	return &SubmitWarningHandler{
		nameValidator,
		notificationBroker,
	}
}

func (h *SubmitWarningHandler) Handle(ctx context.Context, req SubmitWarningRequest) (SubmitWarningResponse, error) {
	err := h.nameValidator.Validate(req.Recipient)
	if err != nil {
		return SubmitWarningResponse{}, err
	}

	if len(req.ExposureDates) == 0 {
		return SubmitWarningResponse{},
			ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("exposureDates cannot be empty"))
	}

	w := warning.New(req.Recipient, req.ExposureDates, req.Room, req.Visitor)
	outcome := h.notificationBroker.Notify(req.Recipient, w)

	return SubmitWarningResponse{
		Outcome:   outcome,
		WarningId: w.Id,
		Timestamp: time.Now(),
	}, nil
}
