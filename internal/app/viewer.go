// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/relabs-tech/imu_viewer/internal/config"
	"github.com/relabs-tech/imu_viewer/internal/estimate"
	"github.com/relabs-tech/imu_viewer/internal/imu"
	"github.com/relabs-tech/imu_viewer/internal/orientation"
	"github.com/relabs-tech/imu_viewer/internal/pipeline"
	"github.com/relabs-tech/imu_viewer/internal/viewer"
)

// RunViewer runs the whole viewer in one process: frame source → pipeline
// → websocket renderer, with the acquisition loop on this goroutine and
// the web server on its own. Open http://localhost:<port> for the scene
// and plots.
func RunViewer() error {
	cfg := config.Get()

	src, err := newFrameSource(cfg)
	if err != nil {
		return fmt.Errorf("frame source: %w", err)
	}

	conv, err := cfg.Convention()
	if err != nil {
		return err
	}
	log.Printf("axis convention: %s", conv.Name)

	renderer := viewer.NewServer(viewer.NewScene(
		cfg.SceneBoardLength, cfg.SceneBoardWidth, cfg.SceneBoardHeight))

	pipe, err := pipeline.New(pipeline.Options{
		BufferCapacity: cfg.BufferCapacity,
		PlotDivisor:    cfg.PlotDivisor,
		Convention:     conv,
	}, renderer)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	renderer.SetState(pipe)

	go renderer.Run()
	go func() {
		if err := serveHTTP(cfg.WebServerPort, renderer.Room(), pipe); err != nil {
			log.Fatalf("web server: %v", err)
		}
	}()

	var est *estimate.VelocityEstimator
	if cfg.EstimateEnabled {
		est = estimate.NewVelocityEstimator(estimate.Options{
			Leakage:   cfg.EstimateLeakage,
			BiasAlpha: cfg.EstimateBiasAlpha,
			ZeroVZ:    cfg.EstimateZeroVZ,
		})
		log.Println("velocity/position estimation enabled")
	}

	log.Printf("starting acquisition at %d ms per sample", cfg.IMUSampleInterval)

	interval := time.Duration(cfg.IMUSampleInterval) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastPose orientation.Orientation
	var havePose bool
	var lastTick time.Time
	var lastLog time.Time

	for t := range ticker.C {
		frame, err := src.ReadFrame()
		if err != nil {
			log.Printf("sensor read error: %v", err)
			continue
		}

		// The estimator needs a world-frame orientation for the same
		// motion; the previous sample's pose is 25 ms old, well inside
		// the estimator's own noise floor.
		var position *imu.Vec3
		if est != nil && havePose {
			dt := interval.Seconds()
			if !lastTick.IsZero() {
				dt = t.Sub(lastTick).Seconds()
			}
			est.Update(frame.LinAccel, lastPose.Quat, dt)
			p := est.Position()
			position = &p
		}
		lastTick = t

		o, err := pipe.Update(frame, position)
		if err != nil {
			if errors.Is(err, imu.ErrMalformedFrame) {
				log.Printf("skipping malformed frame: %v", err)
				continue
			}
			return err
		}
		lastPose = o
		havePose = true

		if t.Sub(lastLog) >= time.Second {
			lastLog = t
			log.Printf("pose R=%.1f P=%.1f Y=%.1f", o.Roll, o.Pitch, o.Yaw)
		}
	}
	return nil
}

// serveHTTP mounts the static client, the pose REST endpoint and the
// websocket room.
func serveHTTP(port int, room *viewer.Room, pipe *pipeline.Pipeline) error {
	mux := http.NewServeMux()

	mux.Handle("/ws", room)

	mux.HandleFunc("/api/pose", func(w http.ResponseWriter, r *http.Request) {
		pose := pipe.LastPose()
		if pose == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(pose); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	mux.HandleFunc("/api/plots", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		snap := pipe.Snapshot()
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	// Static files from ./web as the root
	mux.Handle("/", http.FileServer(http.Dir("web")))

	addr := fmt.Sprintf(":%d", port)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
