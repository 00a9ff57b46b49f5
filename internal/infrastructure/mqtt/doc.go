// Package mqtt provides MQTT client connectivity for the Tuya BLE bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// The bridge uses MQTT as its only surface towards the home-automation
// platform. Entity state flows out on retained state topics, commands flow
// in on command topics, and the broker decouples the platform from the BLE
// side entirely.
//
//	Tuya BLE devices ↔ bridge ↔ MQTT broker ↔ automation platform
//
// # Topic scheme
//
//	tuyable/state/{device}/{key}     retained entity state (JSON)
//	tuyable/command/{device}/{key}   entity commands from the platform
//	tuyable/availability/{device}    retained device availability
//	tuyable/discovery/{device}       retained entity catalogue (JSON)
//	tuyable/bridge/status            bridge online/offline (LWT-backed)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllEntityCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	topic := mqtt.Topics{}.EntityState("smart-lock", "beep_volume")
//	client.Publish(topic, []byte(`{"option":"low"}`), 1, true)
package mqtt
