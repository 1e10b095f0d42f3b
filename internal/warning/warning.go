package warning

import (
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Warning is an exposure notification addressed to a single recipient
// identity (a room name or a visitor name).
type Warning struct {
	Id            string    `json:"id"`
	Recipient     string    `json:"recipient"`
	ExposureDates []string  `json:"exposureDates"`
	Room          string    `json:"room"`
	Visitor       string    `json:"visitor,omitempty"`
	ReceivedAt    time.Time `json:"receivedAt"`
}

func New(recipient string, exposureDates []string, room string, visitor string) Warning {
	return Warning{
		Id:            gonanoid.Must(),
		Recipient:     recipient,
		ExposureDates: exposureDates,
		Room:          room,
		Visitor:       visitor,
		ReceivedAt:    time.Now(),
	}
}

// Delivery is the outbound message. Field names are part of the wire
// contract with existing downstream consumers and must not change.
type Delivery struct {
	Visitor       string   `json:"visitor"`
	ExposureDates []string `json:"exposureDates"`
	Room          string   `json:"room"`
}
