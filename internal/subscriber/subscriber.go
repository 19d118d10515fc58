// Package subscriber keeps a long-lived MQTT session with the station broker
// and turns every sensor message into an accumulator update and a live event.
package subscriber

import (
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/itsatony/w4b_v3/server/clima/internal/clock"
	"github.com/itsatony/w4b_v3/server/clima/internal/config"
	"github.com/itsatony/w4b_v3/server/clima/internal/errors"
	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	"github.com/itsatony/w4b_v3/server/clima/internal/monitoring"
	nuts "github.com/vaudience/go-nuts"
)

// Recorder receives every accepted value.
type Recorder interface {
	Record(label string, value float64)
}

// Broadcaster fans accepted values out to live clients.
type Broadcaster interface {
	Broadcast(reading models.LiveReading)
}

type Subscriber struct {
	cfg      config.MQTTConfig
	registry *models.SensorRegistry
	recorder Recorder
	live     Broadcaster
	clock    clock.Clock
	metrics  *monitoring.Service

	cm        *autopaho.ConnectionManager
	connected atomic.Bool
}

// New creates a subscriber. live may be nil.
func New(cfg config.MQTTConfig, registry *models.SensorRegistry, recorder Recorder, live Broadcaster, clk clock.Clock, metrics *monitoring.Service) *Subscriber {
	if cfg.ClientID == "" {
		cfg.ClientID = nuts.NID("clima", 8)
	}
	return &Subscriber{
		cfg:      cfg,
		registry: registry,
		recorder: recorder,
		live:     live,
		clock:    clk,
		metrics:  metrics,
	}
}

// DecodeValue parses a plain decimal payload. Non-finite numbers are rejected.
func DecodeValue(payload []byte) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		return 0, errors.NewDecodeError("payload is not a number", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.NewDecodeError("payload is not a finite number", nil)
	}
	return v, nil
}

// HandleMessage processes one inbound message. Malformed payloads and unknown
// topics are dropped silently. It reports whether the value was accepted.
func (s *Subscriber) HandleMessage(topic string, payload []byte) bool {
	value, err := DecodeValue(payload)
	if err != nil {
		s.metrics.MessageReceived(monitoring.ResultDecodeError)
		return false
	}
	sensor, ok := s.registry.Lookup(topic)
	if !ok {
		s.metrics.MessageReceived(monitoring.ResultUnknownTopic)
		return false
	}

	s.recorder.Record(sensor.Label, value)
	if s.live != nil {
		s.live.Broadcast(models.NewLiveReading(sensor, value, s.clock.Now()))
	}
	s.metrics.MessageReceived(monitoring.ResultAccepted)
	return true
}

func (s *Subscriber) clientConfig() (autopaho.ClientConfig, error) {
	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return autopaho.ClientConfig{}, fmt.Errorf("invalid mqtt url %q: %w", s.cfg.URL, err)
	}

	cfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{u},
		KeepAlive:                     s.cfg.KeepAlive,
		CleanStartOnInitialConnection: true,
		ConnectTimeout:                s.cfg.ConnTimeout,
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			s.connected.Store(true)
			nuts.L.Infof("[Subscriber] Connected to %s", u.Host)
			s.subscribeAll(cm)
		},
		OnConnectError: func(err error) {
			s.connected.Store(false)
			nuts.L.Warnf("[Subscriber] Connection attempt failed: %v", errors.NewTransportError("connect failed", err))
		},
		ClientConfig: paho.ClientConfig{
			ClientID: s.cfg.ClientID,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(pr paho.PublishReceived) (bool, error) {
					s.HandleMessage(pr.Packet.Topic, pr.Packet.Payload)
					return true, nil
				},
			},
			OnClientError: func(err error) {
				s.connected.Store(false)
				nuts.L.Warnf("[Subscriber] Client error: %v", err)
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				s.connected.Store(false)
				nuts.L.Warnf("[Subscriber] Server requested disconnect (reason %d)", d.ReasonCode)
			},
		},
	}
	switch u.Scheme {
	case "wss", "ssl", "tls", "mqtts":
		cfg.TlsCfg = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: u.Hostname()}
	}
	if s.cfg.Username != "" {
		cfg.ConnectUsername = s.cfg.Username
		cfg.ConnectPassword = []byte(s.cfg.Password)
	}
	return cfg, nil
}

// subscribeAll runs on every (re)connect, so a new session always has every topic.
func (s *Subscriber) subscribeAll(cm *autopaho.ConnectionManager) {
	topics := s.registry.Topics()
	subs := make([]paho.SubscribeOptions, 0, len(topics))
	for _, t := range topics {
		subs = append(subs, paho.SubscribeOptions{Topic: t, QoS: 0})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := cm.Subscribe(ctx, &paho.Subscribe{Subscriptions: subs}); err != nil {
		nuts.L.Errorf("[Subscriber] Failed to subscribe to %d topics: %v", len(subs), err)
		return
	}
	s.metrics.RecordEvent("mqtt_subscribed", map[string]string{"topics": strconv.Itoa(len(subs))})
	nuts.L.Infof("[Subscriber] Subscribed to %s", strings.Join(topics, ", "))
}

// Start opens the managed connection. Reconnects happen in the background
// until ctx is cancelled or Stop is called. Start waits up to the configured
// connect timeout for the first session but never fails on it.
func (s *Subscriber) Start(ctx context.Context) error {
	cfg, err := s.clientConfig()
	if err != nil {
		return err
	}
	cm, err := autopaho.NewConnection(ctx, cfg)
	if err != nil {
		return errors.NewTransportError("failed to start mqtt connection", err)
	}
	s.cm = cm

	wait := s.cfg.ConnTimeout
	if wait <= 0 {
		wait = 10 * time.Second
	}
	actx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := cm.AwaitConnection(actx); err != nil {
		nuts.L.Warnf("[Subscriber] Broker not reachable yet, retrying in background: %v", err)
	}
	return nil
}

// Connected reports whether a session is currently up.
func (s *Subscriber) Connected() bool {
	return s.connected.Load()
}

// Stop disconnects from the broker and waits for the connection manager to exit.
func (s *Subscriber) Stop(ctx context.Context) error {
	if s.cm == nil {
		return nil
	}
	err := s.cm.Disconnect(ctx)
	s.connected.Store(false)
	select {
	case <-s.cm.Done():
	case <-ctx.Done():
	}
	return err
}
