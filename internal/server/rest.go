package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/VladGeana/radar/internal/auth"
	"github.com/VladGeana/radar/internal/handler"
	"github.com/VladGeana/radar/internal/ierr"
	"github.com/VladGeana/radar/internal/presence"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RESTServer is the administrative/ingestion front door: warnings come in
// here, and operators query occupancy and pending state. Callers
// authenticate with an API key or a JWT; participant sockets do not.
type RESTServer struct {
	logger        *zap.Logger
	authenticator *auth.Authenticator

	submitHandler    handler.SubmitWarningHandlerInterface
	occupancyHandler handler.OccupancyHandlerInterface
	pendingHandler   handler.QueryPendingHandlerInterface
	clearHandler     handler.ClearPendingHandlerInterface
	roomsHandler     handler.ListRoomsHandlerInterface
}

func NewRESTServer(
	logger *zap.Logger,
	authenticator *auth.Authenticator,
	submitHandler handler.SubmitWarningHandlerInterface,
	occupancyHandler handler.OccupancyHandlerInterface,
	pendingHandler handler.QueryPendingHandlerInterface,
	clearHandler handler.ClearPendingHandlerInterface,
	roomsHandler handler.ListRoomsHandlerInterface,
) *RESTServer {
	return &RESTServer{
		logger:           logger,
		authenticator:    authenticator,
		submitHandler:    submitHandler,
		occupancyHandler: occupancyHandler,
		pendingHandler:   pendingHandler,
		clearHandler:     clearHandler,
		roomsHandler:     roomsHandler,
	}
}

func (s *RESTServer) Register(router *mux.Router) {
	router.HandleFunc("/warnings", s.handleSubmit).Methods("POST", "OPTIONS")
	router.HandleFunc("/occupancy", s.handleOccupancy).Methods("GET")
	router.HandleFunc("/pending", s.handleQueryPending).Methods("GET")
	router.HandleFunc("/pending", s.handleClearPending).Methods("DELETE")
	router.HandleFunc("/rooms", s.handleRooms).Methods("GET")
}

func (s *RESTServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

	if r.Method == "OPTIONS" {
		return
	}

	authentication, err := s.authorize(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if !authentication.CanWarn() {
		s.writeError(w, ierr.New(ierr.ErrorCodePermissionDenied,
			errors.New("warn scope required to submit warnings")))
		return
	}

	var req handler.SubmitWarningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid request body")))
		return
	}

	if !authentication.IsAuthorized(req.Room) {
		s.writeError(w, ierr.New(ierr.ErrorCodePermissionDenied,
			errors.New("caller not authorized for this room")))
		return
	}

	response, err := s.submitHandler.Handle(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, response)
}

func (s *RESTServer) handleOccupancy(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authorize(r); err != nil {
		s.writeError(w, err)
		return
	}

	response, err := s.occupancyHandler.Handle(r.Context(), handler.OccupancyRequest{
		Room: r.URL.Query().Get("room"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, response)
}

func (s *RESTServer) handleQueryPending(w http.ResponseWriter, r *http.Request) {
	authentication, err := s.authorize(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if !authentication.CanInspect() {
		s.writeError(w, ierr.New(ierr.ErrorCodePermissionDenied,
			errors.New("inspect scope required to query pending warnings")))
		return
	}

	response, err := s.pendingHandler.Handle(r.Context(), handler.QueryPendingRequest{
		Kind: presence.IdentityKind(r.URL.Query().Get("kind")),
		Name: r.URL.Query().Get("name"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, response)
}

func (s *RESTServer) handleClearPending(w http.ResponseWriter, r *http.Request) {
	authentication, err := s.authorize(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if !authentication.IsAdmin {
		s.writeError(w, ierr.New(ierr.ErrorCodePermissionDenied,
			errors.New("only admin callers may clear pending warnings")))
		return
	}

	response, err := s.clearHandler.Handle(r.Context(), handler.ClearPendingRequest{
		Kind: presence.IdentityKind(r.URL.Query().Get("kind")),
		Name: r.URL.Query().Get("name"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, response)
}

func (s *RESTServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authorize(r); err != nil {
		s.writeError(w, err)
		return
	}

	response, err := s.roomsHandler.Handle(r.Context(), handler.ListRoomsRequest{
		Filter: r.URL.Query().Get("filter"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, response)
}

func (s *RESTServer) authorize(r *http.Request) (*auth.Authentication, error) {
	header := r.Header.Get("Authorization")

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("missing bearer token"))
	}

	return s.authenticator.Authenticate(token)
}

func (s *RESTServer) writeJSON(w http.ResponseWriter, response any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *RESTServer) writeError(w http.ResponseWriter, err error) {
	code := ierr.CodeOf(err)
	if code == ierr.ErrorCodeInternal {
		s.logger.Error("request failed", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForCode(code))

	body := ierr.Error{Code: code, Message: err.Error()}
	if encodeErr := json.NewEncoder(w).Encode(body); encodeErr != nil {
		s.logger.Error("failed to encode error response", zap.Error(encodeErr))
	}
}

func statusForCode(code ierr.ErrorCode) int {
	switch code {
	case ierr.ErrorCodeInvalidArgument:
		return http.StatusBadRequest
	case ierr.ErrorCodeUnauthenticated:
		return http.StatusUnauthorized
	case ierr.ErrorCodePermissionDenied:
		return http.StatusForbidden
	case ierr.ErrorCodeNotFound:
		return http.StatusNotFound
	case ierr.ErrorCodeAlreadyExists:
		return http.StatusConflict
	case ierr.ErrorCodeFailedPrecondition:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}
