package server

import (
	"net/http"
	"net/url"

	"github.com/VladGeana/radar/internal/broker"
	"github.com/VladGeana/radar/internal/presence"
	"github.com/VladGeana/radar/internal/rpc"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const maxFrameSize = 4096

type WebSocketServer struct {
	logger   *zap.Logger
	upgrader *websocket.Upgrader

	registry           *presence.Registry
	notificationBroker *broker.Broker
	reporter           *broker.OccupancyReporter
	router             *Router
}

func NewWebSocketServer(
	logger *zap.Logger,
	upgrader *websocket.Upgrader,
	registry *presence.Registry,
	notificationBroker *broker.Broker,
	reporter *broker.OccupancyReporter,
	router *Router,
) *WebSocketServer {
	return &WebSocketServer{
		logger:             logger,
		upgrader:           upgrader,
		registry:           registry,
		notificationBroker: notificationBroker,
		reporter:           reporter,
		router:             router,
	}
}

func (s *WebSocketServer) Register(router *mux.Router) {
	router.HandleFunc("/socket", s.handle)
}

func (s *WebSocketServer) handle(w http.ResponseWriter, r *http.Request) {
	kind, name, err := identityFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		id, err = presence.GenerateConnectionId()
		if err != nil {
			http.Error(w, "failed to assign connection id", http.StatusInternalServerError)
			return
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn.SetReadLimit(maxFrameSize)

	connection, err := s.registry.Register(id, kind, name)
	if err != nil {
		s.logger.Warn("registration rejected",
			zap.String("connectionId", id),
			zap.Error(err))

		conn.WriteJSON(rpc.Request{}.ReplyWithError(s.router.mapError(err)))
		conn.Close()
		return
	}

	s.logger.Info("connection opened",
		zap.String("connectionId", id),
		zap.String("kind", string(kind)),
		zap.String("name", name))

	go s.writeLoop(conn, connection)

	flushed, outcome := s.notificationBroker.OnConnect(kind, name)
	s.logger.Info("pending check on connect",
		zap.String("name", name),
		zap.Int("flushed", flushed),
		zap.String("outcome", string(outcome)))

	s.readLoop(r, conn, connection)

	s.registry.Unregister(id)
	s.reporter.Publish(name)

	s.logger.Info("connection closed",
		zap.String("connectionId", id),
		zap.String("name", name))
}

func (s *WebSocketServer) readLoop(r *http.Request, conn *websocket.Conn, connection *presence.Connection) {
	for {
		var request rpc.Request
		if err := conn.ReadJSON(&request); err != nil {
			// Malformed frames and closed peers both end the session.
			return
		}

		ctx := presence.WithConnection(r.Context(), connection)

		response := s.router.RouteRequest(ctx, request)
		if response == nil {
			continue
		}

		// Replies go through the registry so the send cannot race a
		// concurrent close of the channel.
		s.registry.SendTo(connection.Id, *response)
	}
}

func (s *WebSocketServer) writeLoop(conn *websocket.Conn, connection *presence.Connection) {
	// The registry closes Send on unregister, which ends this loop.
	for frame := range connection.Send {
		if err := conn.WriteJSON(frame); err != nil {
			s.logger.Debug("write failed, evicting connection",
				zap.String("connectionId", connection.Id),
				zap.Error(err))

			s.registry.Unregister(connection.Id)
		}
	}

	conn.Close()
}

// identityFromQuery resolves the handshake query parameters into a tagged
// identity. Exactly one of room, visitor or admin must be present; a
// handshake carrying several roles is ambiguous and is rejected outright.
func identityFromQuery(query url.Values) (presence.IdentityKind, string, error) {
	var kind presence.IdentityKind
	var name string
	matches := 0

	for _, candidate := range []presence.IdentityKind{presence.KindRoom, presence.KindVisitor, presence.KindAdmin} {
		if value := query.Get(string(candidate)); value != "" {
			kind = candidate
			name = value
			matches++
		}
	}

	if matches != 1 {
		return "", "", presence.ErrInvalidIdentity
	}

	return kind, name, nil
}
