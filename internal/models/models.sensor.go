// FilePath: server/clima/internal/models/models.sensor.go
package models

import "strings"

// SensorDescriptor is the static description of one sensor kind published by the station
type SensorDescriptor struct {
	// Topic suffix, appended to the configured prefix (e.g. "temperatura")
	Topic     string `json:"topic"`
	DisplayID string `json:"sensor_id"`
	Label     string `json:"label"`
	Unit      string `json:"unit"`
	// Column in the sensor_readings table
	Column string `json:"-"`
}

// Labels of the station sensors, as they appear in live events and report listings
const (
	LabelTemperature  = "Temperatura"
	LabelPressure     = "Presión"
	LabelHumidity     = "Humedad"
	LabelSoilMoisture = "Humedad suelo"
	LabelLight        = "Luz"
	LabelVibration    = "Vibración"
)

var sensorDescriptors = []SensorDescriptor{
	{Topic: "temperatura", DisplayID: "tempChart", Label: LabelTemperature, Unit: "°C", Column: "temperatura"},
	{Topic: "presion", DisplayID: "presChart", Label: LabelPressure, Unit: "hPa", Column: "presion"},
	{Topic: "humedad", DisplayID: "humChart", Label: LabelHumidity, Unit: "%", Column: "humedad"},
	{Topic: "humedad_suelo", DisplayID: "soilChart", Label: LabelSoilMoisture, Unit: "%", Column: "humedad_suelo"},
	{Topic: "lux", DisplayID: "lightChart", Label: LabelLight, Unit: "lux", Column: "luz"},
	{Topic: "vibracion", DisplayID: "vibrChart", Label: LabelVibration, Unit: "Hz", Column: "vibracion"},
}

// SensorDescriptors returns the station sensors in storage column order
func SensorDescriptors() []SensorDescriptor {
	out := make([]SensorDescriptor, len(sensorDescriptors))
	copy(out, sensorDescriptors)
	return out
}

// SensorRegistry resolves full topic names to sensor descriptors.
// It is built once at start and read-only afterwards.
type SensorRegistry struct {
	prefix  string
	byTopic map[string]SensorDescriptor
	topics  []string
}

// NewSensorRegistry builds a registry for topics under prefix (e.g. "clima/")
func NewSensorRegistry(prefix string) *SensorRegistry {
	r := &SensorRegistry{
		prefix:  prefix,
		byTopic: make(map[string]SensorDescriptor, len(sensorDescriptors)),
		topics:  make([]string, 0, len(sensorDescriptors)),
	}
	for _, d := range sensorDescriptors {
		topic := prefix + d.Topic
		d.Topic = topic
		r.byTopic[topic] = d
		r.topics = append(r.topics, topic)
	}
	return r
}

// Lookup returns the descriptor for a full topic name
func (r *SensorRegistry) Lookup(topic string) (SensorDescriptor, bool) {
	d, ok := r.byTopic[strings.TrimSpace(topic)]
	return d, ok
}

// Topics lists every subscribed topic
func (r *SensorRegistry) Topics() []string {
	out := make([]string, len(r.topics))
	copy(out, r.topics)
	return out
}

func (r *SensorRegistry) Prefix() string {
	return r.prefix
}

// DescriptorByLabel finds a sensor by its display label
func DescriptorByLabel(label string) (SensorDescriptor, bool) {
	for _, d := range sensorDescriptors {
		if d.Label == label {
			return d, true
		}
	}
	return SensorDescriptor{}, false
}
