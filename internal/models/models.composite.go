// FilePath: server/clima/internal/models/models.composite.go
package models

import "time"

// LiveEventSensorData is the event name pushed to live clients
const LiveEventSensorData = "sensor_data"

// LiveReading is one decoded stream value, as forwarded to live clients
type LiveReading struct {
	Topic     string  `json:"topic"`
	SensorID  string  `json:"sensor_id"`
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
}

// NewLiveReading stamps a decoded value with the given instant
func NewLiveReading(d SensorDescriptor, value float64, at time.Time) LiveReading {
	return LiveReading{
		Topic:     d.Topic,
		SensorID:  d.DisplayID,
		Label:     d.Label,
		Value:     value,
		Unit:      d.Unit,
		Timestamp: at.UnixMilli(),
	}
}

// LiveEnvelope wraps a live reading for the websocket channel
type LiveEnvelope struct {
	Event string      `json:"event"`
	Data  LiveReading `json:"data"`
}

// LatestReadings combines the last live value of every sensor seen so far
type LatestReadings struct {
	Sensors   map[string]LiveReading `json:"sensors"`
	UpdatedAt time.Time              `json:"updated_at"`
}
