// Package model holds the records shared between the repository, service and
// handler layers.
package model

import (
	"encoding/json"
	"time"

	"github.com/deppfellow/calculator-api/internal/lib/utils"
)

// AnonymousOwner owns calculations made without a verified identity.
const AnonymousOwner = "anonymous"

// Calculation is one persisted successful calculation.
type Calculation struct {
	ID              string    `json:"id"`
	Num1            float64   `json:"num1"`
	Num2            float64   `json:"num2"`
	Operation       string    `json:"operation"`
	OperationSymbol string    `json:"operationSymbol"`
	Result          float64   `json:"result"`
	Calculation     string    `json:"calculation"`
	CreatedAt       time.Time `json:"-"`
	UserID          string    `json:"userId"`
}

// MarshalJSON renders CreatedAt as the "timestamp" field in ISO-8601 UTC.
func (c Calculation) MarshalJSON() ([]byte, error) {
	type wire Calculation
	return json.Marshal(struct {
		wire
		Timestamp string `json:"timestamp"`
	}{wire(c), utils.ISOTimestamp(c.CreatedAt)})
}

// UnmarshalJSON reads records written by MarshalJSON (e.g. from a cache).
func (c *Calculation) UnmarshalJSON(data []byte) error {
	type wire Calculation
	aux := struct {
		*wire
		Timestamp string `json:"timestamp"`
	}{wire: (*wire)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Timestamp == "" {
		return nil
	}

	at, err := time.Parse(utils.ISOTimestampLayout, aux.Timestamp)
	if err != nil {
		return err
	}
	c.CreatedAt = at
	return nil
}

// CalculationStats summarizes one owner's history.
type CalculationStats struct {
	Total           int64            `json:"total"`
	Operations      map[string]int64 `json:"operations"`
	LastCalculation *Calculation     `json:"lastCalculation"`
}
