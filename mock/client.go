// Package mock provides an in-memory MQTT client for tests and examples.
package mock

import (
	"encoding/json"
	"io"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/brewsignal/brewsignal/log"
)

// Client implements [mqtt.Client] without a broker. Published payloads are
// encoded to the writer, and subscribed handlers may be invoked with
// [Client.Push].
type Client struct {
	connected bool

	onConnect mqtt.OnConnectHandler
	routes    map[string]mqtt.MessageHandler
	opts      *mqtt.ClientOptions
	w         io.Writer
	mu        sync.Mutex
}

// NewClient returns a new mock Client writing published payloads to w.
func NewClient(o *mqtt.ClientOptions, w io.Writer) *Client {
	return &Client{
		opts:   o,
		w:      w,
		routes: make(map[string]mqtt.MessageHandler),
	}
}

func (c *Client) IsConnected() bool {
	return c.connected
}

func (c *Client) IsConnectionOpen() bool {
	return c.connected
}

func (c *Client) Connect() mqtt.Token {
	c.connected = true
	if c.onConnect != nil {
		c.onConnect(c)
	}
	return &mqtt.DummyToken{}
}

func (c *Client) Disconnect(_ uint) {
	c.connected = false
}

func (c *Client) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	var p json.RawMessage
	switch v := payload.(type) {
	case []byte:
		p = json.RawMessage(v)
	case string:
		p = json.RawMessage(v)
	}
	e := json.NewEncoder(c.w)
	e.SetIndent("", "  ")
	err := e.Encode(map[string]json.RawMessage{topic: p})
	if err != nil {
		log.Error("Error encoding "+topic, err)
	}
	if s, ok := c.w.(interface{ Sync() error }); ok {
		s.Sync()
	}
	return &mqtt.DummyToken{}
}

func (c *Client) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	c.routes[topic] = callback
	c.mu.Unlock()
	return &mqtt.DummyToken{}
}

func (c *Client) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	for topic := range filters {
		c.routes[topic] = callback
	}
	c.mu.Unlock()
	return &mqtt.DummyToken{}
}

func (c *Client) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	for _, topic := range topics {
		delete(c.routes, topic)
	}
	c.mu.Unlock()
	return &mqtt.DummyToken{}
}

func (c *Client) AddRoute(topic string, callback mqtt.MessageHandler) {
	c.mu.Lock()
	c.routes[topic] = callback
	c.mu.Unlock()
}

func (c *Client) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.NewOptionsReader(c.opts)
}

// Topics returns the currently subscribed topics.
func (c *Client) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	topics := make([]string, 0, len(c.routes))
	for topic := range c.routes {
		topics = append(topics, topic)
	}
	return topics
}

// Push delivers payload to the handler subscribed at topic, matching single
// level wildcards, and reports whether a handler was found.
func (c *Client) Push(topic string, payload []byte) bool {
	c.mu.Lock()
	var handler mqtt.MessageHandler
	for filter, h := range c.routes {
		if matchTopic(filter, topic) {
			handler = h
			break
		}
	}
	c.mu.Unlock()
	if handler == nil {
		return false
	}
	handler(c, &message{topic: topic, payload: payload})
	return true
}

func matchTopic(filter, topic string) bool {
	if filter == topic {
		return true
	}
	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")
	for i, f := range fp {
		if f == "#" {
			return true
		}
		if i >= len(tp) || (f != "+" && f != tp[i]) {
			return false
		}
	}
	return len(fp) == len(tp)
}

type message struct {
	topic   string
	payload []byte
}

func (m *message) Duplicate() bool   { return false }
func (m *message) Qos() byte         { return 0 }
func (m *message) Retained() bool    { return false }
func (m *message) MessageID() uint16 { return 0 }
func (m *message) Ack()              {}

func (m *message) Topic() string {
	return m.topic
}

func (m *message) Payload() []byte {
	return m.payload
}
