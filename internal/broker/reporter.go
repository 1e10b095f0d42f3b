package broker

import (
	"github.com/VladGeana/radar/internal/presence"
	"go.uber.org/zap"
)

// OccupancyUpdate is the payload of the updatedOccupancy broadcast.
type OccupancyUpdate struct {
	Room      string `json:"room"`
	Occupancy int    `json:"occupancy"`
}

// OccupancyReporter publishes group occupancy to the whole namespace. It
// holds no state of its own; every count is a fresh directory read.
type OccupancyReporter struct {
	logger    *zap.Logger
	directory *presence.Directory
	emitter   Emitter
}

func NewOccupancyReporter(
	logger *zap.Logger,
	directory *presence.Directory,
	emitter Emitter,
) *OccupancyReporter {
	return &OccupancyReporter{
		logger:    logger,
		directory: directory,
		emitter:   emitter,
	}
}

// Report returns the current occupancy of a group; unknown groups count
// zero.
func (r *OccupancyReporter) Report(room string) int {
	return r.directory.OccupancyOf(room)
}

// Publish broadcasts the current occupancy of a group and returns it.
// A group that is not materialized produces no broadcast.
func (r *OccupancyReporter) Publish(room string) int {
	occupancy := r.directory.OccupancyOf(room)
	if occupancy == 0 {
		return 0
	}

	r.emitter.Broadcast(EventUpdatedOccupancy, OccupancyUpdate{
		Room:      room,
		Occupancy: occupancy,
	})

	r.logger.Debug("occupancy published",
		zap.String("room", room),
		zap.Int("occupancy", occupancy))

	return occupancy
}
