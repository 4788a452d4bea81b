// Package mqtt announces booth check-ins on an optional MQTT broker.
//
// When mqtt.enabled is set, each resolved scan is published on
// companion/checkin/<company id> for venue dashboards and counters. The
// install's presence is kept on a retained status topic: "online" after
// every connect, "offline" on Close, and the same "offline" as the last
// will if the link dies.
//
// The companion never subscribes. Publishing is best effort; callers log
// a failure and carry on.
//
//	client, err := mqtt.Connect(cfg.MQTT, logger)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(mqtt.Topics{}.Checkin("42"), outcome)
//
// Payloads name the booth and the outcome only. Use TLS for any broker
// that is not on the device.
package mqtt
