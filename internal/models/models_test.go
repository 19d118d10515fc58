package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensorRegistryLookup(t *testing.T) {
	reg := NewSensorRegistry("clima/")

	d, ok := reg.Lookup("clima/lux")
	require.True(t, ok)
	assert.Equal(t, "lightChart", d.DisplayID)
	assert.Equal(t, LabelLight, d.Label)
	assert.Equal(t, "lux", d.Unit)
	assert.Equal(t, "clima/lux", d.Topic)

	_, ok = reg.Lookup("clima/co2")
	assert.False(t, ok)
	_, ok = reg.Lookup("lux")
	assert.False(t, ok)

	assert.Len(t, reg.Topics(), 6)
	assert.Contains(t, reg.Topics(), "clima/humedad_suelo")
}

func TestNewSensorReadingMapsLabels(t *testing.T) {
	ts := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	r := NewSensorReading(ts, map[string]float64{
		LabelTemperature: 21.5,
		LabelHumidity:    60.0,
		"Unknown":        1,
	})

	require.NotNil(t, r.Temperature)
	require.NotNil(t, r.Humidity)
	assert.Equal(t, 21.5, *r.Temperature)
	assert.Equal(t, 60.0, *r.Humidity)
	assert.Nil(t, r.Pressure)
	assert.Nil(t, r.SoilMoisture)
	assert.Nil(t, r.Light)
	assert.Nil(t, r.Vibration)
	assert.False(t, r.IsEmpty())
	assert.Equal(t, ts, r.Timestamp)
}

func TestSensorReadingIsEmpty(t *testing.T) {
	assert.True(t, NewSensorReading(time.Now(), nil).IsEmpty())
	assert.True(t, NewSensorReading(time.Now(), map[string]float64{"Unknown": 3}).IsEmpty())
}

func TestParseCondition(t *testing.T) {
	cases := map[string]Condition{
		"Óptimo":    ConditionOptimal,
		"optimo":    ConditionOptimal,
		"Optimal":   ConditionOptimal,
		" Estable ": ConditionStable,
		"VARIABLE":  ConditionVariable,
		"Alerta":    ConditionAlert,
		"Crítico":   ConditionCritical,
		"critical":  ConditionCritical,
	}
	for in, want := range cases {
		got, err := ParseCondition(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCondition("Excelente")
	assert.Error(t, err)
}

func TestDocumentScan(t *testing.T) {
	var d Document
	require.NoError(t, d.Scan([]byte(`{"fecha":"2026-10-19"}`)))
	assert.Equal(t, "2026-10-19", d["fecha"])

	var s Document
	require.NoError(t, s.Scan(`{"condicion_general":"Estable"}`))
	assert.Equal(t, "Estable", s["condicion_general"])

	v, err := Document{"a": 1.0}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, v)

	assert.Error(t, s.Scan(42))
}

func TestReadingFiltersNormalize(t *testing.T) {
	f := ReadingFilters{}
	f.Normalize()
	assert.Equal(t, DefaultReadingHours, f.Hours)

	f = ReadingFilters{Hours: 1000}
	f.Normalize()
	assert.Equal(t, MaxReadingHours, f.Hours)
}

func TestNewLiveReading(t *testing.T) {
	reg := NewSensorRegistry("clima/")
	d, _ := reg.Lookup("clima/temperatura")
	at := time.UnixMilli(1760000000123)

	ev := NewLiveReading(d, 22.4, at)
	assert.Equal(t, "clima/temperatura", ev.Topic)
	assert.Equal(t, "tempChart", ev.SensorID)
	assert.Equal(t, "°C", ev.Unit)
	assert.Equal(t, int64(1760000000123), ev.Timestamp)
}
