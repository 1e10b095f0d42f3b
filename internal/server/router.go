package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/VladGeana/radar/internal/handler"
	"github.com/VladGeana/radar/internal/ierr"
	"github.com/VladGeana/radar/internal/rpc"
	"go.uber.org/zap"
)

type Router struct {
	logger *zap.Logger

	heartbeatHandler *handler.HeartbeatHandler
	submitHandler    handler.SubmitWarningHandlerInterface
	occupancyHandler handler.OccupancyHandlerInterface
	pendingHandler   handler.QueryPendingHandlerInterface
	clearHandler     handler.ClearPendingHandlerInterface
	enterHandler     handler.EnterRoomHandlerInterface
	leaveHandler     handler.LeaveRoomHandlerInterface
	roomsHandler     handler.ListRoomsHandlerInterface
}

func NewRouter(
	logger *zap.Logger,
	heartbeatHandler *handler.HeartbeatHandler,
	submitHandler handler.SubmitWarningHandlerInterface,
	occupancyHandler handler.OccupancyHandlerInterface,
	pendingHandler handler.QueryPendingHandlerInterface,
	clearHandler handler.ClearPendingHandlerInterface,
	enterHandler handler.EnterRoomHandlerInterface,
	leaveHandler handler.LeaveRoomHandlerInterface,
	roomsHandler handler.ListRoomsHandlerInterface,
) *Router {
	return &Router{
		logger,
		heartbeatHandler,
		submitHandler,
		occupancyHandler,
		pendingHandler,
		clearHandler,
		enterHandler,
		leaveHandler,
		roomsHandler,
	}
}

func (r *Router) RouteRequest(ctx context.Context, request rpc.Request) *rpc.Response {
	response, err := r.Handle(ctx, request)
	if err != nil {
		response := request.ReplyWithError(r.mapError(err))

		return &response
	}

	if !request.ReplyExpected() {
		return nil
	}

	rawJson, err := json.Marshal(response)
	if err != nil {
		response := request.ReplyWithError(r.mapError(err))

		return &response
	}

	payload := json.RawMessage(rawJson)
	reply := request.Reply(&payload)

	return &reply
}

func (r *Router) Handle(ctx context.Context, request rpc.Request) (any, error) {
	switch request.Method {
	case "heartbeat":
		return r.heartbeatHandler.Handle(), nil
	case "submitWarning":
		var req handler.SubmitWarningRequest
		if err := decodeParams(request.Params, &req); err != nil {
			return nil, err
		}

		return r.submitHandler.Handle(ctx, req)
	case "queryOccupancy":
		var req handler.OccupancyRequest
		if err := decodeParams(request.Params, &req); err != nil {
			return nil, err
		}

		return r.occupancyHandler.Handle(ctx, req)
	case "queryPending":
		var req handler.QueryPendingRequest
		if err := decodeParams(request.Params, &req); err != nil {
			return nil, err
		}

		return r.pendingHandler.Handle(ctx, req)
	case "clearPending":
		var req handler.ClearPendingRequest
		if err := decodeParams(request.Params, &req); err != nil {
			return nil, err
		}

		return r.clearHandler.Handle(ctx, req)
	case "enterRoom":
		var req handler.EnterRoomRequest
		if err := decodeParams(request.Params, &req); err != nil {
			return nil, err
		}

		return r.enterHandler.Handle(ctx, req)
	case "leaveRoom":
		var req handler.LeaveRoomRequest
		if err := decodeParams(request.Params, &req); err != nil {
			return nil, err
		}

		return r.leaveHandler.Handle(ctx, req)
	case "listRooms":
		var req handler.ListRoomsRequest
		if err := decodeParams(request.Params, &req); err != nil {
			return nil, err
		}

		return r.roomsHandler.Handle(ctx, req)
	default:
		return nil, ierr.Newf(ierr.ErrorCodeNotFound, "method not found: %s", request.Method)
	}
}

func (r *Router) mapError(err error) ierr.Error {
	var handlerErr ierr.Error
	if errors.As(err, &handlerErr) {
		return handlerErr
	}

	r.logger.Error("error in rpc handler", zap.Error(err))

	return ierr.New(ierr.ErrorCodeInternal, errors.New("internal error"))
}

func decodeParams(params *json.RawMessage, v any) error {
	if params == nil {
		return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("missing params"))
	}

	if err := json.Unmarshal(*params, v); err != nil {
		return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid params: "+err.Error()))
	}

	return nil
}
