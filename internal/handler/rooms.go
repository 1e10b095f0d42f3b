package handler

import (
	"context"

	"github.com/VladGeana/radar/internal/broker"
	"github.com/VladGeana/radar/internal/ierr"
	"github.com/VladGeana/radar/internal/presence"
	"github.com/VladGeana/radar/internal/warning"
)

const (
	FilterAvailable = "available"
	FilterOccupied  = "occupied"
	FilterVisitor   = "visitor"
	FilterPending   = "pending"
)

type ListRoomsRequest struct {
	Filter string `json:"filter"`
}

type ListRoomsResponse struct {
	Filter string `json:"filter"`
	Rooms  any    `json:"rooms"`
}

type ListRoomsHandlerInterface interface {
	Handle(ctx context.Context, req ListRoomsRequest) (ListRoomsResponse, error)
}

// ListRoomsHandler answers administrative room queries and exposes the
// result to every connection in the namespace, mirroring what a connected
// dashboard expects.
type ListRoomsHandler struct {
	directory *presence.Directory
	queue     *warning.PendingQueue
	emitter   broker.Emitter
}

func NewListRoomsHandler(
	directory *presence.Directory,
	queue *warning.PendingQueue,
	emitter broker.Emitter,
) *ListRoomsHandler {
	return &ListRoomsHandler{
		directory,
		queue,
		emitter,
	}
}

func (h *ListRoomsHandler) Handle(ctx context.Context, req ListRoomsRequest) (ListRoomsResponse, error) {
	filter := req.Filter
	if filter == "" {
		filter = FilterAvailable
	}

	var event string
	var rooms any

	switch filter {
	case FilterAvailable:
		event = broker.EventAvailableRooms
		rooms = h.directory.Available()
	case FilterOccupied:
		event = broker.EventOccupiedRooms
		rooms = h.directory.Occupied()
	case FilterVisitor:
		event = broker.EventVisitorRooms
		rooms = h.directory.Visitors()
	case FilterPending:
		event = broker.EventPendingRooms
		rooms = h.queue.Recipients()
	default:
		return ListRoomsResponse{},
			ierr.Newf(ierr.ErrorCodeInvalidArgument, "unknown room filter: %s", filter)
	}

	h.emitter.Broadcast(event, rooms)

	return ListRoomsResponse{
		Filter: filter,
		Rooms:  rooms,
	}, nil
}
