package handler

import (
	"context"
	"time"

	"github.com/VladGeana/radar/internal/broker"
)

type OccupancyRequest struct {
	Room string `json:"room"`
}

type OccupancyResponse struct {
	Room      string    `json:"room"`
	Occupancy int       `json:"occupancy"`
	Timestamp time.Time `json:"timestamp"`
}

type OccupancyHandlerInterface interface {
	Handle(ctx context.Context, req OccupancyRequest) (OccupancyResponse, error)
}

type OccupancyHandler struct {
	nameValidator *NameValidator
	reporter      *broker.OccupancyReporter
}

func NewOccupancyHandler(
	nameValidator *NameValidator,
	reporter *broker.OccupancyReporter,
) *OccupancyHandler {
	return &OccupancyHandler{
		nameValidator,
		reporter,
	}
}

func (h *OccupancyHandler) Handle(ctx context.Context, req OccupancyRequest) (OccupancyResponse, error) {
	err := h.nameValidator.Validate(req.Room)
	if err != nil {
		return OccupancyResponse{}, err
	}

	// A room nobody occupies reports zero, it is not an error.
	return OccupancyResponse{
		Room:      req.Room,
		Occupancy: h.reporter.Report(req.Room),
		Timestamp: time.Now(),
	}, nil
}
