package amqp

import (
	"time"

	"dealtracker/internal/core"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DealStatusChanged is published whenever a deal's stored status flips.
// Amounts are decimal strings so consumers never see float rounding.
type DealStatusChanged struct {
	DealID        int       `json:"deal_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	TotalReceived string    `json:"total_received"`
	TotalPaid     string    `json:"total_paid"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewDealStatusChanged(change core.StatusChange) *DealStatusChanged {
	return &DealStatusChanged{
		DealID:        change.DealID,
		From:          change.From.String(),
		To:            change.To.String(),
		TotalReceived: change.Totals.Received.String(),
		TotalPaid:     change.Totals.Paid.String(),
		Timestamp:     time.Now().UTC(),
	}
}

func (m *DealStatusChanged) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DealStatusChangedFromJSON(data []byte) (*DealStatusChanged, error) {
	var msg DealStatusChanged
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
