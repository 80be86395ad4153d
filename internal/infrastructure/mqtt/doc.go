// Package mqtt provides the publish-only MQTT endpoint of the relay.
//
// # Architecture
//
// The package wraps the paho MQTT client behind a small publish API. Events
// flow one way: Ring activity, alarm device state, and health snapshots are
// published to a fixed topic hierarchy under the "ringrelay" prefix (see
// Topics). The relay never subscribes.
//
// Connection state is tracked through paho's connect and disconnect
// handlers, with paho handling reconnection itself. A retained status
// document on ringrelay/system/status reports "online" after each
// connection; a last-will message flips it to "offline" if the relay
// drops off uncleanly, and Close publishes the same document gracefully.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	client.SetLogger(logger)
//	defer client.Close()
//
//	client.PublishJSON(mqtt.Topics{}.Activity("motion", 11), event)
package mqtt
