package rpc

import (
	"encoding/json"

	"github.com/VladGeana/radar/internal/ierr"
)

type Request struct {
	Id     string           `json:"id,omitempty"`
	Method string           `json:"method"`
	Params *json.RawMessage `json:"params,omitempty"`
}

// NewNotification builds a server-initiated request with no id; the peer
// is not expected to reply. The method carries the wire event label.
func NewNotification(method string, payload any) (Request, error) {
	rawJson, err := json.Marshal(payload)
	if err != nil {
		return Request{}, err
	}

	params := json.RawMessage(rawJson)

	return Request{
		Method: method,
		Params: &params,
	}, nil
}

func (r Request) ReplyExpected() bool {
	return r.Id != ""
}

func (r Request) Reply(result *json.RawMessage) Response {
	return Response{
		RequestId: r.Id,
		Result:    result,
	}
}

func (r Request) ReplyWithError(err ierr.Error) Response {
	return Response{
		RequestId: r.Id,
		Error:     &err,
	}
}

type Response struct {
	RequestId string           `json:"requestId,omitempty"`
	Result    *json.RawMessage `json:"result,omitempty"`
	Error     *ierr.Error      `json:"error,omitempty"`
}

func (r Response) IsFailure() bool {
	return r.Error != nil
}
