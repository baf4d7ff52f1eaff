// Package broadcast implements the MQTT ambient-update source.
//
// While the display is ambient it never self-schedules refreshes; something
// external has to say "update now". This client subscribes to a broker topic
// and converts each update message into an instant on a buffered channel
// that the main loop turns into ambient-update events.
//
// Message format: JSON with an update instant in milliseconds since epoch
// and an optional sequence number, e.g. {"at":1773910800000,"sq":42}.
// A message without an instant means "refresh at receive time".
package broadcast

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// UpdateMessage is one ambient refresh announcement from the broker.
type UpdateMessage struct {
	AtMillis int64  `json:"at"` // update instant, milliseconds since epoch; 0 = now
	Sequence uint64 `json:"sq"` // optional publisher sequence number
	Source   string `json:"src"`
}

// Client subscribes to the ambient-update topic and emits update instants.
//
// Thread safety: the MQTT library invokes the message handler on its own
// goroutines; the updates channel is buffered with non-blocking sends so a
// stalled consumer drops updates instead of wedging the broker session.
// Auto-reconnect is handled by the library.
type Client struct {
	broker   string
	port     int
	topic    string
	client   mqtt.Client
	dedupe   *payloadDedupe
	updates  chan time.Time
	shutdown chan struct{}
}

// NewClient creates an ambient broadcast client. dedupeWindow bounds how
// long an identical payload is treated as a redelivery.
func NewClient(broker string, port int, topic string, dedupeWindow time.Duration) *Client {
	return &Client{
		broker:   broker,
		port:     port,
		topic:    topic,
		dedupe:   newPayloadDedupe(dedupeWindow),
		updates:  make(chan time.Time, 64),
		shutdown: make(chan struct{}),
	}
}

// Connect establishes the broker session and subscribes.
func (c *Client) Connect() error {
	opts := mqtt.NewClientOptions()
	brokerURL := fmt.Sprintf("tcp://%s:%d", c.broker, c.port)
	opts.AddBroker(brokerURL)
	opts.SetClientID(fmt.Sprintf("watchface-%d", time.Now().Unix()))
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(opts)

	log.Printf("Broadcast: connecting to %s...", brokerURL)
	token := c.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("broadcast: connect %s: %w", brokerURL, token.Error())
	}
	return nil
}

func (c *Client) onConnect(client mqtt.Client) {
	log.Printf("Broadcast: connected, subscribing to %s", c.topic)
	token := client.Subscribe(c.topic, 1, c.messageHandler)
	if token.Wait() && token.Error() != nil {
		log.Printf("Broadcast: subscribe failed: %v", token.Error())
	}
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	log.Printf("Broadcast: connection lost: %v (will reconnect)", err)
}

func (c *Client) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	c.handlePayload(msg.Payload(), time.Now().UTC())
}

// handlePayload parses, dedupes, and forwards one broker message. Split from
// the MQTT callback so it can be exercised without a broker.
func (c *Client) handlePayload(payload []byte, now time.Time) {
	if c.dedupe.Seen(payload, now) {
		return
	}

	var um UpdateMessage
	if err := json.Unmarshal(payload, &um); err != nil {
		log.Printf("Broadcast: malformed update message: %v", err)
		return
	}

	at := now
	if um.AtMillis > 0 {
		at = time.UnixMilli(um.AtMillis).UTC()
	}

	select {
	case c.updates <- at:
	default:
		log.Printf("Broadcast: update channel full, dropping refresh at %s", at)
	}
}

// Updates returns the channel of ambient refresh instants.
func (c *Client) Updates() <-chan time.Time {
	return c.updates
}

// IsConnected reports whether the broker session is up.
func (c *Client) IsConnected() bool {
	return c != nil && c.client != nil && c.client.IsConnected()
}

// Stop unsubscribes and closes the broker session.
func (c *Client) Stop() {
	if c == nil {
		return
	}
	if c.client != nil && c.client.IsConnected() {
		c.client.Unsubscribe(c.topic)
		c.client.Disconnect(250)
	}
	close(c.shutdown)
}
