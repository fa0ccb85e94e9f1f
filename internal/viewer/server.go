// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package viewer

import (
	"encoding/json"
	"log"

	"github.com/relabs-tech/imu_viewer/internal/pipeline"
)

// StateProvider supplies the current pipeline state for clients that join
// mid-stream: the pose the object should start at and the full channel
// histories for the plots.
type StateProvider interface {
	LastPose() *pipeline.PoseUpdate
	Snapshot() pipeline.PlotSnapshot
}

// Message is the envelope of the websocket protocol. Exactly one of the
// payload fields is set, selected by Type ("scene", "pose" or "plots").
type Message struct {
	Type  string                 `json:"type"`
	Scene *Scene                 `json:"scene,omitempty"`
	Pose  *pipeline.PoseUpdate   `json:"pose,omitempty"`
	Plots *pipeline.PlotSnapshot `json:"plots,omitempty"`
}

// Server is the websocket renderer: it implements pipeline.Renderer by
// fanning pose and plot messages out to browser clients. All pushes are
// fire-and-forget; a slow client only loses its own updates.
type Server struct {
	room  *Room
	scene Scene
	state StateProvider
}

// NewServer creates the renderer. state may be nil until SetState is
// called (the pipeline needs the renderer at construction, so the two are
// tied together after both exist).
func NewServer(scene Scene) *Server {
	s := &Server{scene: scene}
	s.room = NewRoom(s.greeting)
	return s
}

// SetState wires the pipeline state used to greet joining clients.
func (s *Server) SetState(state StateProvider) {
	s.state = state
}

// Run starts the room loop; call in a goroutine.
func (s *Server) Run() {
	s.room.Run()
}

// Room exposes the websocket handler for mounting on a mux.
func (s *Server) Room() *Room {
	return s.room
}

// SyncPose broadcasts a pose update. Implements pipeline.Renderer.
func (s *Server) SyncPose(u *pipeline.PoseUpdate) {
	s.broadcast(Message{Type: "pose", Pose: u})
}

// PushPlots broadcasts a plot snapshot. Implements pipeline.Renderer.
func (s *Server) PushPlots(snap pipeline.PlotSnapshot) {
	s.broadcast(Message{Type: "plots", Plots: &snap})
}

func (s *Server) broadcast(m Message) {
	payload, err := json.Marshal(m)
	if err != nil {
		log.Printf("viewer: marshal %s message: %v", m.Type, err)
		return
	}
	s.room.Forward(payload)
}

// greeting builds the messages a joining client receives: the scene, the
// current pose (when one exists) and a full snapshot of all plots.
func (s *Server) greeting() [][]byte {
	msgs := make([][]byte, 0, 3)

	if payload, err := json.Marshal(Message{Type: "scene", Scene: &s.scene}); err == nil {
		msgs = append(msgs, payload)
	}

	if s.state == nil {
		return msgs
	}
	if pose := s.state.LastPose(); pose != nil {
		if payload, err := json.Marshal(Message{Type: "pose", Pose: pose}); err == nil {
			msgs = append(msgs, payload)
		}
	}
	snap := s.state.Snapshot()
	if payload, err := json.Marshal(Message{Type: "plots", Plots: &snap}); err == nil {
		msgs = append(msgs, payload)
	}
	return msgs
}
