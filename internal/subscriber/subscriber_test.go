package subscriber

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/itsatony/w4b_v3/server/clima/internal/clock"
	"github.com/itsatony/w4b_v3/server/clima/internal/config"
	"github.com/itsatony/w4b_v3/server/clima/internal/errors"
	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	"github.com/itsatony/w4b_v3/server/clima/internal/monitoring"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	label string
	value float64
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recorded
}

func (f *fakeRecorder) Record(label string, value float64) {
	f.mu.Lock()
	f.seen = append(f.seen, recorded{label, value})
	f.mu.Unlock()
}

func (f *fakeRecorder) all() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.seen...)
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []models.LiveReading
}

func (f *fakeBroadcaster) Broadcast(r models.LiveReading) {
	f.mu.Lock()
	f.events = append(f.events, r)
	f.mu.Unlock()
}

func (f *fakeBroadcaster) all() []models.LiveReading {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.LiveReading(nil), f.events...)
}

func TestDecodeValue(t *testing.T) {
	v, err := DecodeValue([]byte(" 21.5\n"))
	require.NoError(t, err)
	assert.Equal(t, 21.5, v)

	v, err = DecodeValue([]byte("-3"))
	require.NoError(t, err)
	assert.Equal(t, -3.0, v)

	for _, bad := range []string{"", "abc", "21,5", "NaN", "inf", `{"v":1}`} {
		_, err := DecodeValue([]byte(bad))
		require.Error(t, err, bad)
		assert.Equal(t, errors.ErrorTypeDecode, errors.TypeOf(err), bad)
	}
}

func TestHandleMessage(t *testing.T) {
	at := time.UnixMilli(1760900000000).In(clock.Zone(-5))
	rec := &fakeRecorder{}
	live := &fakeBroadcaster{}
	s := New(config.MQTTConfig{}, models.NewSensorRegistry("clima/"), rec, live, clock.NewManual(at), monitoring.NewService())

	assert.True(t, s.HandleMessage("clima/temperatura", []byte("21.5")))
	assert.False(t, s.HandleMessage("clima/temperatura", []byte("not-a-number")))
	assert.False(t, s.HandleMessage("clima/co2", []byte("400")))
	assert.True(t, s.HandleMessage("clima/humedad_suelo", []byte("43")))

	assert.Equal(t, []recorded{{models.LabelTemperature, 21.5}, {models.LabelSoilMoisture, 43}}, rec.all())

	events := live.all()
	require.Len(t, events, 2)
	assert.Equal(t, models.LiveReading{
		Topic:     "clima/temperatura",
		SensorID:  "tempChart",
		Label:     models.LabelTemperature,
		Value:     21.5,
		Unit:      "°C",
		Timestamp: 1760900000000,
	}, events[0])
}

func TestHandleMessageWithoutBroadcaster(t *testing.T) {
	rec := &fakeRecorder{}
	s := New(config.MQTTConfig{}, models.NewSensorRegistry("clima/"), rec, nil, clock.NewFixed(-5), nil)

	assert.True(t, s.HandleMessage("clima/lux", []byte("1200")))
	assert.Len(t, rec.all(), 1)
}

func TestNewGeneratesClientID(t *testing.T) {
	s := New(config.MQTTConfig{}, models.NewSensorRegistry("clima/"), &fakeRecorder{}, nil, clock.NewFixed(-5), nil)
	assert.NotEmpty(t, s.cfg.ClientID)
}

func TestClientConfigTLSForSecureSchemes(t *testing.T) {
	s := New(config.MQTTConfig{URL: "wss://broker.example.com:8084/mqtt", Username: "u", Password: "p"},
		models.NewSensorRegistry("clima/"), &fakeRecorder{}, nil, clock.NewFixed(-5), nil)

	cfg, err := s.clientConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg.TlsCfg)
	assert.Equal(t, "broker.example.com", cfg.TlsCfg.ServerName)
	assert.Equal(t, "u", cfg.ConnectUsername)
	assert.Equal(t, []byte("p"), cfg.ConnectPassword)

	s.cfg.URL = "mqtt://localhost:1883"
	cfg, err = s.clientConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg.TlsCfg)
}

const (
	brokerPort = 18831
	brokerUser = "estacion"
	brokerPass = "clima-secret"
)

func startBroker(t *testing.T) *mochi.Server {
	t.Helper()
	server := mochi.New(&mochi.Options{InlineClient: true})
	err := server.AddHook(new(auth.Hook), &auth.Options{
		Ledger: &auth.Ledger{
			Auth: auth.AuthRules{
				{Username: auth.RString(brokerUser), Password: auth.RString(brokerPass), Allow: true},
			},
		},
	})
	require.NoError(t, err)

	require.NoError(t, server.AddListener(listeners.NewTCP(listeners.Config{
		Type:    "tcp",
		ID:      "clima-test",
		Address: fmt.Sprintf("127.0.0.1:%d", brokerPort),
	})))
	require.NoError(t, server.Serve())
	t.Cleanup(func() { server.Close() })
	return server
}

func TestSubscriberWithBroker(t *testing.T) {
	broker := startBroker(t)

	rec := &fakeRecorder{}
	live := &fakeBroadcaster{}
	s := New(config.MQTTConfig{
		URL:         fmt.Sprintf("mqtt://127.0.0.1:%d", brokerPort),
		Username:    brokerUser,
		Password:    brokerPass,
		KeepAlive:   30,
		ConnTimeout: 5 * time.Second,
	}, models.NewSensorRegistry("clima/"), rec, live, clock.NewFixed(-5), monitoring.NewService())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	require.Eventually(t, s.Connected, 5*time.Second, 20*time.Millisecond)

	// subscriptions are issued right after the connection comes up
	require.Eventually(t, func() bool {
		_ = broker.Publish("clima/presion", []byte("1013.2"), false, 0)
		return len(rec.all()) > 0
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, broker.Publish("clima/presion", []byte("garbage"), false, 0))
	require.NoError(t, broker.Publish("clima/vibracion", []byte("12"), false, 0))

	require.Eventually(t, func() bool {
		for _, r := range rec.all() {
			if r.label == models.LabelVibration {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)

	for _, r := range rec.all() {
		assert.Contains(t, []string{models.LabelPressure, models.LabelVibration}, r.label)
	}
	assert.NotEmpty(t, live.all())

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, s.Stop(stopCtx))
	assert.False(t, s.Connected())
}
