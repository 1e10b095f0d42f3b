package handler

import (
	"context"
	"errors"

	"github.com/VladGeana/radar/internal/broker"
	"github.com/VladGeana/radar/internal/presence"
)

type LeaveRoomRequest struct {
	Room string `json:"room"`
}

type LeaveRoomResponse struct {
	Room      string `json:"room"`
	Occupancy int    `json:"occupancy"`
}

type LeaveRoomHandlerInterface interface {
	Handle(ctx context.Context, req LeaveRoomRequest) (LeaveRoomResponse, error)
}

type LeaveRoomHandler struct {
	nameValidator *NameValidator
	registry      *presence.Registry
	reporter      *broker.OccupancyReporter
}

func NewLeaveRoomHandler(
	nameValidator *NameValidator,
	registry *presence.Registry,
	reporter *broker.OccupancyReporter,
) *LeaveRoomHandler {
	return &LeaveRoomHandler{
		nameValidator,
		registry,
		reporter,
	}
}

func (h *LeaveRoomHandler) Handle(ctx context.Context, req LeaveRoomRequest) (LeaveRoomResponse, error) {
	err := h.nameValidator.Validate(req.Room)
	if err != nil {
		return LeaveRoomResponse{}, err
	}

	connection, ok := presence.ConnectionFromContext(ctx)
	if !ok {
		return LeaveRoomResponse{}, errors.New("connection not found in context")
	}

	h.registry.Leave(connection.Id, req.Room)

	return LeaveRoomResponse{
		Room:      req.Room,
		Occupancy: h.reporter.Publish(req.Room),
	}, nil
}
