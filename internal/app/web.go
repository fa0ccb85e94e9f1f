package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/imu_viewer/internal/config"
	"github.com/relabs-tech/imu_viewer/internal/pipeline"
	"github.com/relabs-tech/imu_viewer/internal/viewer"
)

// RunWeb serves the viewer client from MQTT instead of an in-process
// pipeline: it subscribes to the pose and plots topics and re-broadcasts
// them to websocket clients. Retained MQTT messages give a freshly started
// server the current state immediately.
func RunWeb() error {
	cfg := config.Get()

	var (
		mu        sync.RWMutex
		lastPose  *pipeline.PoseUpdate
		lastPlots *pipeline.PlotSnapshot
	)

	renderer := viewer.NewServer(viewer.NewScene(
		cfg.SceneBoardLength, cfg.SceneBoardWidth, cfg.SceneBoardHeight))
	renderer.SetState(webState{mu: &mu, pose: &lastPose, plots: &lastPlots})
	go renderer.Run()

	// 1) Connect to the MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe and fan out to websocket clients
	token := client.Subscribe(cfg.TopicPose, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var u pipeline.PoseUpdate
		if err := json.Unmarshal(msg.Payload(), &u); err != nil {
			log.Printf("MQTT pose unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastPose = &u
		mu.Unlock()
		renderer.SyncPose(&u)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}

	token = client.Subscribe(cfg.TopicPlots, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var snap pipeline.PlotSnapshot
		if err := json.Unmarshal(msg.Payload(), &snap); err != nil {
			log.Printf("MQTT plots unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastPlots = &snap
		mu.Unlock()
		renderer.PushPlots(snap)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("subscribed to %s and %s", cfg.TopicPose, cfg.TopicPlots)

	// 3) HTTP endpoints
	mux := http.NewServeMux()
	mux.Handle("/ws", renderer.Room())

	mux.HandleFunc("/api/pose", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		pose := lastPose
		mu.RUnlock()
		if pose == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(pose); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	// 4) Static files from ./web as the root
	mux.Handle("/", http.FileServer(http.Dir("web")))

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

// webState adapts the MQTT-fed caches to the viewer's join greeting.
type webState struct {
	mu    *sync.RWMutex
	pose  **pipeline.PoseUpdate
	plots **pipeline.PlotSnapshot
}

func (s webState) LastPose() *pipeline.PoseUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if *s.pose == nil {
		return nil
	}
	u := **s.pose
	return &u
}

func (s webState) Snapshot() pipeline.PlotSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if *s.plots == nil {
		return pipeline.PlotSnapshot{}
	}
	return **s.plots
}
