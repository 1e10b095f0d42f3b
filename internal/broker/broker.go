package broker

import (
	"github.com/VladGeana/radar/internal/presence"
	"github.com/VladGeana/radar/internal/warning"
	"go.uber.org/zap"
)

// Event labels on the wire. Existing downstream consumers match on these
// strings, so they must stay bit-exact.
const (
	EventNotifyRoom       = "notifyRoom"
	EventExposureAlert    = "exposureAlert"
	EventUpdatedOccupancy = "updatedOccupancy"

	EventAvailableRooms = "availableRoomsExposed"
	EventOccupiedRooms  = "occupiedRoomsExposed"
	EventVisitorRooms   = "visitorsRoomsExposed"
	EventPendingRooms   = "pendingRoomsExposed"
)

// Outcome is the terminal decision for a warning or a flush. Once made it
// is final; the broker never retries or rolls back.
type Outcome string

const (
	OutcomeDelivered      Outcome = "delivered"
	OutcomeQueued         Outcome = "queued"
	OutcomeFlushed        Outcome = "flushed"
	OutcomeNothingPending Outcome = "nothingPending"
)

// Emitter is the transport primitive the broker drives. Sends are
// fire-and-forget: no acknowledgment is awaited and failures do not roll
// back queue state.
type Emitter interface {
	EmitToGroup(group string, event string, payload any)
	Broadcast(event string, payload any)
}

// Broker routes warnings to online recipients immediately and parks the
// rest in the pending queue until the recipient reconnects. No warning is
// dropped merely because its recipient is momentarily offline.
type Broker struct {
	logger   *zap.Logger
	registry *presence.Registry
	queue    *warning.PendingQueue
	emitter  Emitter
	reporter *OccupancyReporter
}

func NewBroker(
	logger *zap.Logger,
	registry *presence.Registry,
	queue *warning.PendingQueue,
	emitter Emitter,
	reporter *OccupancyReporter,
) *Broker {
	return &Broker{
		logger:   logger,
		registry: registry,
		queue:    queue,
		emitter:  emitter,
		reporter: reporter,
	}
}

// Notify delivers a warning to the recipient's own group when the
// recipient is online, and queues it otherwise. The event label follows
// the recipient's identity kind.
func (b *Broker) Notify(recipient string, w warning.Warning) Outcome {
	conn, online := b.registry.FindByName(recipient)
	if !online {
		b.queue.Enqueue(recipient, w)

		b.logger.Info("recipient offline, warning queued",
			zap.String("recipient", recipient),
			zap.String("warningId", w.Id))

		return OutcomeQueued
	}

	delivery := warning.Delivery{
		Visitor:       w.Visitor,
		ExposureDates: w.ExposureDates,
		Room:          w.Room,
	}

	event := EventNotifyRoom
	if conn.Kind == presence.KindVisitor {
		event = EventExposureAlert
		delivery.Visitor = recipient
	}

	b.emitter.EmitToGroup(recipient, event, delivery)

	b.logger.Info("warning delivered",
		zap.String("recipient", recipient),
		zap.String("event", event),
		zap.String("warningId", w.Id))

	return OutcomeDelivered
}

// OnConnect flushes queued warnings for a freshly registered identity and
// republishes the occupancy of its group. Warnings flush in enqueue
// order. An admin identity checks both delivery channels.
func (b *Broker) OnConnect(kind presence.IdentityKind, name string) (int, Outcome) {
	flushed := 0

	if kind == presence.KindRoom || kind == presence.KindAdmin {
		for _, w := range b.queue.Drain(name) {
			b.emitter.EmitToGroup(name, EventNotifyRoom, warning.Delivery{
				Visitor:       "",
				ExposureDates: w.ExposureDates,
				Room:          name,
			})
			flushed++
		}
	}

	if kind == presence.KindVisitor || kind == presence.KindAdmin {
		for _, w := range b.queue.Drain(name) {
			b.emitter.EmitToGroup(name, EventExposureAlert, warning.Delivery{
				Visitor:       name,
				ExposureDates: w.ExposureDates,
				Room:          "",
			})
			flushed++
		}
	}

	b.reporter.Publish(name)

	if flushed == 0 {
		b.logger.Debug("nothing pending",
			zap.String("kind", string(kind)),
			zap.String("name", name))

		return 0, OutcomeNothingPending
	}

	b.logger.Info("pending warnings flushed",
		zap.String("kind", string(kind)),
		zap.String("name", name),
		zap.Int("count", flushed))

	return flushed, OutcomeFlushed
}

// QueryPending is a read-only peek at the queue for administrative
// inspection; it does not drain.
func (b *Broker) QueryPending(kind presence.IdentityKind, name string) []warning.Warning {
	return b.queue.Peek(name)
}

// ClearPending discards queued warnings for an identity without
// delivering them. Returns how many were dropped.
func (b *Broker) ClearPending(kind presence.IdentityKind, name string) int {
	cleared := len(b.queue.Drain(name))

	if cleared > 0 {
		b.logger.Info("pending warnings cleared",
			zap.String("kind", string(kind)),
			zap.String("name", name),
			zap.Int("count", cleared))
	}

	return cleared
}
