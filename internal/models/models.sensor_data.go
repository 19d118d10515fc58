// FilePath: server/clima/internal/models/models.sensor_data.go
package models

import "time"

// SensorReading is one persisted snapshot of the station sensors.
// Fields are nil when the sensor reported nothing during the flush window.
type SensorReading struct {
	ID           int64     `json:"id" db:"id"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	Temperature  *float64  `json:"temperatura" db:"temperatura"`
	Pressure     *float64  `json:"presion" db:"presion"`
	Humidity     *float64  `json:"humedad" db:"humedad"`
	SoilMoisture *float64  `json:"humedad_suelo" db:"humedad_suelo"`
	Light        *float64  `json:"luz" db:"luz"`
	Vibration    *float64  `json:"vibracion" db:"vibracion"`
}

// NewSensorReading builds a reading from a label -> value snapshot. Unknown labels are ignored.
func NewSensorReading(ts time.Time, values map[string]float64) *SensorReading {
	r := &SensorReading{Timestamp: ts}
	for label, v := range values {
		d, ok := DescriptorByLabel(label)
		if !ok {
			continue
		}
		v := v
		*r.field(d.Column) = &v
	}
	return r
}

func (r *SensorReading) field(column string) **float64 {
	switch column {
	case "temperatura":
		return &r.Temperature
	case "presion":
		return &r.Pressure
	case "humedad":
		return &r.Humidity
	case "humedad_suelo":
		return &r.SoilMoisture
	case "luz":
		return &r.Light
	case "vibracion":
		return &r.Vibration
	}
	var discard *float64
	return &discard
}

// Value returns the stored value for a sensor column, or nil
func (r *SensorReading) Value(column string) *float64 {
	return *r.field(column)
}

// IsEmpty reports whether every sensor field is nil
func (r *SensorReading) IsEmpty() bool {
	for _, d := range sensorDescriptors {
		if r.Value(d.Column) != nil {
			return false
		}
	}
	return true
}
