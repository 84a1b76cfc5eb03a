package amqp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event types published on the donortrack exchange.
const (
	EventDonationCreated   = "donation.created"
	EventDonationUpdated   = "donation.updated"
	EventDonationDeleted   = "donation.deleted"
	EventReceiptsGenerated = "receipts.generated"
)

// Event is a lightweight notification. Consumers re-read the store for
// current state; the event only says what changed.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	DonationID int64     `json:"donation_id,omitempty"`
	ProgramIDs []int64   `json:"program_ids,omitempty"`
	Year       int       `json:"year,omitempty"`
	Count      int       `json:"count,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewDonationEvent describes a donation mutation and the programs whose
// progress it touched.
func NewDonationEvent(eventType string, donationID int64, programIDs []int64) *Event {
	return &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		DonationID: donationID,
		ProgramIDs: programIDs,
		Timestamp:  time.Now().UTC(),
	}
}

func NewReceiptsGeneratedEvent(year, count int) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      EventReceiptsGenerated,
		Year:      year,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}

// IsDonationEvent reports whether the event concerns a donation mutation.
func (e *Event) IsDonationEvent() bool {
	return strings.HasPrefix(e.Type, "donation.")
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event and rejects messages without a type.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Type == "" {
		return nil, fmt.Errorf("event without type")
	}
	return &e, nil
}
