package stream

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher is the part of an MQTT client the Streamer uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Streamer publishes PNG frames to an MQTT topic.
type Streamer struct {
	client  Publisher
	topic   string
	timeout time.Duration
}

// NewStreamer creates an instance of a Streamer.
func NewStreamer(client Publisher, topic string) *Streamer {
	s := new(Streamer)
	s.client = client
	s.topic = topic
	s.timeout = 10 * time.Second
	return s
}

// Connect dials the broker described by config.
func Connect(config Config) (mqtt.Client, error) {
	options := mqtt.NewClientOptions().
		AddBroker(config.Mqtt.URL).
		SetClientID("barrace").
		SetUsername(config.Mqtt.Username).
		SetPassword(config.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second)
	client := mqtt.NewClient(options)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", config.Mqtt.URL, token.Error())
	}
	return client, nil
}

// Topic returns the topic a frame is published on.
func (s *Streamer) Topic(f *Frame) string {
	return fmt.Sprintf("%s/%s", s.topic, f.Key)
}

// WriteFrame sends a frame as PNG over MQTT.
func (s *Streamer) WriteFrame(f *Frame) error {
	b, err := f.MarshalBinary()
	if err != nil {
		return fmt.Errorf("mqtt frame %d: %w", f.Index, err)
	}
	token := s.client.Publish(s.Topic(f), 1, false, b)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("mqtt publish frame %d: timed out after %s", f.Index, s.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish frame %d: %w", f.Index, err)
	}
	return nil
}

// Close disconnects the client if the Streamer owns one.
func (s *Streamer) Close() error {
	if c, ok := s.client.(mqtt.Client); ok {
		c.Disconnect(250)
	}
	return nil
}
