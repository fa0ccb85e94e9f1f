package app

import (
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/imu_viewer/internal/config"
	"github.com/relabs-tech/imu_viewer/internal/pipeline"
)

// RunConsole subscribes to the pose topic and logs each update, which is
// enough to sanity-check a rig over SSH without starting the web viewer.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID("imu-viewer-console")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicPose, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var u pipeline.PoseUpdate
		if err := json.Unmarshal(msg.Payload(), &u); err != nil {
			log.Printf("MQTT payload unmarshal error: %v", err)
			return
		}
		log.Printf("pose seq=%d R=%7.2f P=%7.2f Y=%7.2f", u.Seq, u.Roll, u.Pitch, u.Yaw)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("subscribed to MQTT topic %s", cfg.TopicPose)

	select {} // block forever; MQTT callbacks do the work
}
