package handler

import (
	"context"
	"errors"

	"github.com/VladGeana/radar/internal/broker"
	"github.com/VladGeana/radar/internal/presence"
)

type EnterRoomRequest struct {
	Room string `json:"room"`
}

type EnterRoomResponse struct {
	Room      string `json:"room"`
	Occupancy int    `json:"occupancy"`
}

type EnterRoomHandlerInterface interface {
	Handle(ctx context.Context, req EnterRoomRequest) (EnterRoomResponse, error)
}

type EnterRoomHandler struct {
	nameValidator *NameValidator
	registry      *presence.Registry
	reporter      *broker.OccupancyReporter
}

func NewEnterRoomHandler(
	nameValidator *NameValidator,
	registry *presence.Registry,
	reporter *broker.OccupancyReporter,
) *EnterRoomHandler {
	return &EnterRoomHandler{
		nameValidator,
		registry,
		reporter,
	}
}

func (h *EnterRoomHandler) Handle(ctx context.Context, req EnterRoomRequest) (EnterRoomResponse, error) {
	err := h.nameValidator.Validate(req.Room)
	if err != nil {
		return EnterRoomResponse{}, err
	}

	connection, ok := presence.ConnectionFromContext(ctx)
	if !ok {
		return EnterRoomResponse{}, errors.New("connection not found in context")
	}

	err = h.registry.Join(connection.Id, req.Room)
	if err != nil {
		return EnterRoomResponse{}, err
	}

	return EnterRoomResponse{
		Room:      req.Room,
		Occupancy: h.reporter.Publish(req.Room),
	}, nil
}
