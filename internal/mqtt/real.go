package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Options configures the broker connection.
type Options struct {
	Broker         string
	ClientID       string
	ConnectTimeout time.Duration

	// Controls enables the controls subscription. Commands are always subscribed.
	Controls bool
}

// Subscriber feeds a Panel from an actual MQTT broker.
type Subscriber struct {
	client paho.Client
	log    *zap.SugaredLogger
}

// NewSubscriber connects to the broker and routes messages to panel.
// Subscriptions are renewed on every (re)connect. A lost connection resets
// the panel to all controls off.
func NewSubscriber(opts Options, panel *Panel, log *zap.SugaredLogger) (*Subscriber, error) {
	clientID := opts.ClientID
	if clientID == "" {
		clientID = "moto-lights"
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	subs := map[string]paho.MessageHandler{
		TopicCommand: func(_ paho.Client, m paho.Message) {
			panel.HandleCommand(m.Payload())
		},
	}
	if opts.Controls {
		subs[TopicControls] = func(_ paho.Client, m paho.Message) {
			panel.HandleControls(m.Payload())
		}
	}

	co := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnf("mqtt: connection lost: %v", err)
			panel.Reset()
		}).
		SetOnConnectHandler(func(c paho.Client) {
			for topic, handler := range subs {
				// QoS 1 (at-least-once); a repeated snapshot or command is harmless
				token := c.Subscribe(topic, 1, handler)
				if !token.WaitTimeout(5 * time.Second) {
					log.Errorf("mqtt: subscribe %s: timeout", topic)
					continue
				}
				if err := token.Error(); err != nil {
					log.Errorf("mqtt: subscribe %s: %v", topic, err)
					continue
				}
				log.Infof("mqtt: subscribed to %s", topic)
			}
		})

	client := paho.NewClient(co)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &Subscriber{client: client, log: log}, nil
}

// IsConnected reports whether the broker connection is up.
func (s *Subscriber) IsConnected() bool {
	return s.client.IsConnected()
}

// Close disconnects from the broker.
func (s *Subscriber) Close() error {
	s.client.Disconnect(1000) // 1 second timeout
	return nil
}
