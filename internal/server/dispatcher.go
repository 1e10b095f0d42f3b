package server

import (
	"github.com/VladGeana/radar/internal/presence"
	"github.com/VladGeana/radar/internal/rpc"
	"go.uber.org/zap"
)

// Dispatcher is the transport side of broker.Emitter. Events go out as
// rpc notifications through the registry, which queues them on each
// member's send channel under its lock; sends are fire-and-forget and a
// connection that cannot keep up is evicted.
type Dispatcher struct {
	logger   *zap.Logger
	registry *presence.Registry
}

func NewDispatcher(
	logger *zap.Logger,
	registry *presence.Registry,
) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		registry: registry,
	}
}

func (d *Dispatcher) EmitToGroup(group string, event string, payload any) {
	notice, ok := d.encode(event, payload)
	if !ok {
		return
	}

	d.registry.SendToGroup(group, notice)
}

func (d *Dispatcher) Broadcast(event string, payload any) {
	notice, ok := d.encode(event, payload)
	if !ok {
		return
	}

	d.registry.SendToAll(notice)
}

func (d *Dispatcher) encode(event string, payload any) (rpc.Request, bool) {
	notice, err := rpc.NewNotification(event, payload)
	if err != nil {
		d.logger.Error("failed to encode notification",
			zap.String("event", event),
			zap.Error(err))

		return rpc.Request{}, false
	}

	return notice, true
}
