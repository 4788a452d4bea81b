package mqtt

import (
	"encoding/json"
	"fmt"
)

const maxPayloadSize = 1 << 20

// Publish sends payload and waits for the broker to acknowledge it at the
// requested QoS. Only status topics are retained.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := validatePublish(topic, payload, qos); err != nil {
		return err
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	tok := c.client.Publish(topic, qos, retained, payload)
	if !tok.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: %s: no ack within %v", ErrPublishFailed, topic, defaultPublishTimeout)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}

// PublishJSON publishes v as JSON at the configured QoS.
func (c *Client) PublishJSON(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return c.Publish(topic, payload, byte(c.cfg.QoS), false)
}

func validatePublish(topic string, payload []byte, qos byte) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case len(payload) > maxPayloadSize:
		return fmt.Errorf("%w: %d byte payload over the %d byte limit", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	return nil
}
