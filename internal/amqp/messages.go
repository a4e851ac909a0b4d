package amqp

import (
	"encoding/json"
	"time"
)

// BudgetAlert is the message published when a budget has been exceeded.
// It carries the fully rendered notification so the worker needs no
// database access to deliver it.
type BudgetAlert struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBudgetAlert(recipient, subject, body string) *BudgetAlert {
	return &BudgetAlert{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Timestamp: time.Now(),
	}
}

func (m *BudgetAlert) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertFromJSON(data []byte) (*BudgetAlert, error) {
	var msg BudgetAlert
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
