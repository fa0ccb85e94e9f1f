package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/imu_viewer/internal/config"
	"github.com/relabs-tech/imu_viewer/internal/gps"
	"github.com/relabs-tech/imu_viewer/internal/imu"
	"github.com/relabs-tech/imu_viewer/internal/pipeline"
)

// mqttRenderer publishes pose and plot updates to MQTT. Publishes are not
// waited on: paho hands the payload to its network goroutine, so a slow or
// absent broker costs the acquisition loop nothing. Retained messages give
// late subscribers the last state immediately.
type mqttRenderer struct {
	client     mqtt.Client
	topicPose  string
	topicPlots string
}

func (r *mqttRenderer) SyncPose(u *pipeline.PoseUpdate) {
	payload, err := json.Marshal(u)
	if err != nil {
		log.Printf("json marshal error (pose): %v", err)
		return
	}
	r.client.Publish(r.topicPose, 0, true, payload)
}

func (r *mqttRenderer) PushPlots(snap pipeline.PlotSnapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Printf("json marshal error (plots): %v", err)
		return
	}
	r.client.Publish(r.topicPlots, 0, true, payload)
}

// RunProducer runs the acquisition loop and publishes pose updates at full
// sample rate plus plot snapshots at the gated rate. When GPS fixes are
// flowing on the GPS topic they are mapped into local ENU meters and ride
// along as the object position.
func RunProducer() error {
	cfg := config.Get()

	src, err := newFrameSource(cfg)
	if err != nil {
		return fmt.Errorf("frame source: %w", err)
	}

	conv, err := cfg.Convention()
	if err != nil {
		return err
	}

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	pipe, err := pipeline.New(pipeline.Options{
		BufferCapacity: cfg.BufferCapacity,
		PlotDivisor:    cfg.PlotDivisor,
		Convention:     conv,
	}, &mqttRenderer{
		client:     client,
		topicPose:  cfg.TopicPose,
		topicPlots: cfg.TopicPlots,
	})
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	// --- optional position from GPS fixes ---
	var posMu sync.Mutex
	var lastPos *imu.Vec3
	local := gps.NewLocalFrame()

	token := client.Subscribe(cfg.TopicGPS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var fix gps.Fix
		if err := json.Unmarshal(msg.Payload(), &fix); err != nil {
			log.Printf("GPS payload unmarshal error: %v", err)
			return
		}
		if pos, ok := local.Position(fix); ok {
			posMu.Lock()
			lastPos = &pos
			posMu.Unlock()
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}

	log.Printf("publishing pose on %s, plots on %s", cfg.TopicPose, cfg.TopicPlots)

	ticker := time.NewTicker(time.Duration(cfg.IMUSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	var lastLog time.Time
	for t := range ticker.C {
		frame, err := src.ReadFrame()
		if err != nil {
			log.Printf("sensor read error: %v", err)
			continue
		}

		// Take the newest GPS-derived position, consuming it so the
		// renderer only moves the object when a fresh fix arrived.
		posMu.Lock()
		position := lastPos
		lastPos = nil
		posMu.Unlock()

		o, err := pipe.Update(frame, position)
		if err != nil {
			if errors.Is(err, imu.ErrMalformedFrame) {
				log.Printf("skipping malformed frame: %v", err)
				continue
			}
			return err
		}

		if t.Sub(lastLog) >= time.Second {
			lastLog = t
			log.Printf("%s tick: pose R=%.2f P=%.2f Y=%.2f | gyro x=%.3f y=%.3f z=%.3f",
				t.Format(time.RFC3339),
				o.Roll, o.Pitch, o.Yaw,
				frame.Gyro.X, frame.Gyro.Y, frame.Gyro.Z,
			)
		}
	}
	return nil
}
