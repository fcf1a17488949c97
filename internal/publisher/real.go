package publisher

import (
	"fmt"
	"strings"
	"time"

	"opensoak/internal/logger"
	"opensoak/internal/models"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// MQTT publishes to a real broker through paho.
type MQTT struct {
	client paho.Client
	prefix string
	log    *logger.Logger
}

// NewMQTT connects to broker and registers an OFFLINE last will on the
// status topic.
func NewMQTT(broker, clientID, prefix string, log *logger.Logger) (*MQTT, error) {
	prefix = strings.TrimSuffix(prefix, "/")
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(prefix+"/"+TopicStatus, string(offlinePayload), 1, true)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	log.Infow("mqtt_connected", "broker", broker, "prefix", prefix)

	return &MQTT{client: client, prefix: prefix, log: log}, nil
}

// PublishStatus sends a retained QoS 1 status message.
func (p *MQTT) PublishStatus(msg StatusMessage) error {
	payload, err := FormatStatus(msg)
	if err != nil {
		return fmt.Errorf("format status: %w", err)
	}
	p.send(TopicStatus, true, payload)
	return nil
}

// PublishEvent sends a QoS 1 usage event.
func (p *MQTT) PublishEvent(ev models.UsageEvent) error {
	payload, err := FormatEvent(ev)
	if err != nil {
		return fmt.Errorf("format event: %w", err)
	}
	p.send(TopicEvents, false, payload)
	return nil
}

// send hands the message to paho and waits for the token off the caller's goroutine.
func (p *MQTT) send(suffix string, retained bool, payload []byte) {
	topic := p.prefix + "/" + suffix
	token := p.client.Publish(topic, 1, retained, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			p.log.Warnw("mqtt_publish_timeout", "topic", topic)
			return
		}
		if err := token.Error(); err != nil {
			p.log.Warnw("mqtt_publish_failed", "topic", topic, "err", err)
		}
	}()
}

// Close publishes the OFFLINE status and disconnects.
func (p *MQTT) Close() error {
	token := p.client.Publish(p.prefix+"/"+TopicStatus, 1, true, offlinePayload)
	token.WaitTimeout(time.Second)
	p.client.Disconnect(1000)
	return nil
}
