// Package message defines the JSON payloads exchanged over the reading queue.
package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformed is returned by DecodeReading for payloads that can never be stored.
var ErrMalformed = errors.New("malformed reading message")

// Reading is a temperature/humidity sample published by a sensor or the generator.
type Reading struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature *float64  `json:"temperature"`
	Humidity    *float64  `json:"humidity"`
	AssetID     uint      `json:"asset_id"`
}

// NewReading builds a message from plain values.
func NewReading(assetID uint, ts time.Time, temperature, humidity float64) Reading {
	return Reading{
		AssetID:     assetID,
		Timestamp:   ts.UTC(),
		Temperature: &temperature,
		Humidity:    &humidity,
	}
}

// DecodeReading parses body. Unknown fields and missing values are rejected with ErrMalformed.
func DecodeReading(body []byte) (Reading, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	var r Reading
	if err := dec.Decode(&r); err != nil {
		return Reading{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	switch {
	case r.AssetID == 0:
		return Reading{}, fmt.Errorf("%w: asset_id is required", ErrMalformed)
	case r.Timestamp.IsZero():
		return Reading{}, fmt.Errorf("%w: timestamp is required", ErrMalformed)
	case r.Temperature == nil:
		return Reading{}, fmt.Errorf("%w: temperature is required", ErrMalformed)
	case r.Humidity == nil:
		return Reading{}, fmt.Errorf("%w: humidity is required", ErrMalformed)
	}
	r.Timestamp = r.Timestamp.UTC()
	return r, nil
}
