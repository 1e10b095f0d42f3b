package handler

import "time"

type HeartbeatResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type HeartbeatHandler struct{}

func NewHeartbeatHandler() *HeartbeatHandler {
	return &HeartbeatHandler{}
}

func (h *HeartbeatHandler) Handle() HeartbeatResponse {
	return HeartbeatResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	}
}
