// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import (
	"fmt"
	"time"

	"github.com/relabs-tech/imu_viewer/internal/imu"
	"github.com/relabs-tech/imu_viewer/internal/orientation"
)

// Defaults matching a 40 Hz acquisition loop: 200 samples is a ~5 s rolling
// window, divisor 4 redraws plots at 10 Hz.
const (
	DefaultBufferCapacity = 200
	DefaultPlotDivisor    = 4
)

// PlotSnapshot is a point-in-time copy of all five channel histories,
// pushed to the renderer at the gated rate and on client (re)connect.
type PlotSnapshot struct {
	Gyro     []ChannelSample `json:"gyro"`         // rad/s
	Accel    []ChannelSample `json:"accel"`        // m/s²
	Mag      []ChannelSample `json:"mag"`          // µT
	LinAccel []ChannelSample `json:"linear_accel"` // m/s²
	Euler    []ChannelSample `json:"euler"`        // deg (roll, pitch, yaw)
}

// Renderer consumes pose and plot updates. Implementations must not block:
// the acquisition loop calls both methods synchronously at sample rate, and
// a slow or absent transport has to be the renderer's problem, never the
// sampling path's. Dropping an update is the expected degradation.
type Renderer interface {
	SyncPose(*PoseUpdate)
	PushPlots(PlotSnapshot)
}

// Options configures a Pipeline.
type Options struct {
	// BufferCapacity is the per-channel rolling history length.
	// Zero means DefaultBufferCapacity; negative is invalid.
	BufferCapacity int
	// PlotDivisor forwards every Nth sample to the plotting path.
	// Zero means DefaultPlotDivisor; values below 1 after defaulting
	// are invalid.
	PlotDivisor int
	// Convention is the sensor→world axis mapping. Zero value means
	// identity.
	Convention orientation.Convention
}

// Pipeline is the real-time orientation pipeline: one instance owns the
// five channel buffers, the plot gate and the pose state. It replaces the
// process-wide singleton the original viewer kept — the acquisition loop
// holds the instance explicitly, which preserves the single-writer model
// without hidden global state.
type Pipeline struct {
	convention orientation.Convention
	renderer   Renderer

	gyro     *ChannelBuffer
	accel    *ChannelBuffer
	mag      *ChannelBuffer
	linAccel *ChannelBuffer
	euler    *ChannelBuffer

	gate *SampleRateGate
	pose *PoseSync

	start time.Time
}

// New creates a Pipeline pushing to the given renderer. A nil renderer is
// allowed (headless operation: buffers and pose still update). Invalid
// capacity or divisor is a construction-time error.
func New(opts Options, r Renderer) (*Pipeline, error) {
	capacity := opts.BufferCapacity
	if capacity == 0 {
		capacity = DefaultBufferCapacity
	}
	if capacity < 1 {
		return nil, fmt.Errorf("buffer capacity must be >= 1, got %d", capacity)
	}

	divisor := opts.PlotDivisor
	if divisor == 0 {
		divisor = DefaultPlotDivisor
	}
	gate, err := NewSampleRateGate(divisor)
	if err != nil {
		return nil, err
	}

	conv := opts.Convention
	if conv.Name == "" {
		conv = orientation.IdentityConvention()
	}

	return &Pipeline{
		convention: conv,
		renderer:   r,
		gyro:       NewChannelBuffer(capacity),
		accel:      NewChannelBuffer(capacity),
		mag:        NewChannelBuffer(capacity),
		linAccel:   NewChannelBuffer(capacity),
		euler:      NewChannelBuffer(capacity),
		gate:       gate,
		pose:       NewPoseSync(),
	}, nil
}

// Convention returns the axis convention the pipeline was built with.
func (p *Pipeline) Convention() orientation.Convention {
	return p.convention
}

// Update runs one sample through the pipeline:
//
//  1. validate the frame — a malformed frame mutates nothing,
//  2. transform the quaternion into the world frame,
//  3. sync the pose (every sample, never gated),
//  4. append all five channel histories (every sample),
//  5. if the gate fires, push a snapshot of all buffers to the plot path.
//
// position is optional; nil leaves the rendered position unchanged.
// The returned orientation is the transformed world-frame attitude.
func (p *Pipeline) Update(frame imu.RawFrame, position *imu.Vec3) (orientation.Orientation, error) {
	if err := validate(frame); err != nil {
		return orientation.Orientation{}, err
	}

	// Transform can only fail on a malformed quaternion, which validate
	// already rejected, so state is guaranteed untouched on any error path.
	o, err := orientation.Transform(orientation.Quaternion{
		W: frame.QuatW, X: frame.QuatX, Y: frame.QuatY, Z: frame.QuatZ,
	}, p.convention)
	if err != nil {
		return orientation.Orientation{}, err
	}

	u := p.pose.Update(o, position)
	if p.renderer != nil {
		p.renderer.SyncPose(u)
	}

	t := p.relativeTime(frame.Time)
	p.gyro.Append(ChannelSample{T: t, X: frame.Gyro.X, Y: frame.Gyro.Y, Z: frame.Gyro.Z})
	p.accel.Append(ChannelSample{T: t, X: frame.Accel.X, Y: frame.Accel.Y, Z: frame.Accel.Z})
	p.mag.Append(ChannelSample{T: t, X: frame.Mag.X, Y: frame.Mag.Y, Z: frame.Mag.Z})
	p.linAccel.Append(ChannelSample{T: t, X: frame.LinAccel.X, Y: frame.LinAccel.Y, Z: frame.LinAccel.Z})
	p.euler.Append(ChannelSample{T: t, X: o.Roll, Y: o.Pitch, Z: o.Yaw})

	if p.gate.ShouldForward() && p.renderer != nil {
		p.renderer.PushPlots(p.Snapshot())
	}

	return o, nil
}

// Snapshot copies out all five channel histories, oldest to newest.
// Safe to call from renderer goroutines (e.g. on client reconnect).
func (p *Pipeline) Snapshot() PlotSnapshot {
	return PlotSnapshot{
		Gyro:     p.gyro.Snapshot(),
		Accel:    p.accel.Snapshot(),
		Mag:      p.mag.Snapshot(),
		LinAccel: p.linAccel.Snapshot(),
		Euler:    p.euler.Snapshot(),
	}
}

// LastPose returns a fresh copy of the current pose, or nil before the
// first successful update.
func (p *Pipeline) LastPose() *PoseUpdate {
	return p.pose.Last()
}

func (p *Pipeline) relativeTime(ts time.Time) float64 {
	if ts.IsZero() {
		ts = time.Now()
	}
	if p.start.IsZero() {
		p.start = ts
	}
	return ts.Sub(p.start).Seconds()
}

func validate(f imu.RawFrame) error {
	q := orientation.Quaternion{W: f.QuatW, X: f.QuatX, Y: f.QuatY, Z: f.QuatZ}
	if _, err := q.Normalized(); err != nil {
		return err
	}
	if !f.Gyro.Finite() || !f.Accel.Finite() || !f.Mag.Finite() || !f.LinAccel.Finite() {
		return fmt.Errorf("%w: non-finite sensor vector", imu.ErrMalformedFrame)
	}
	return nil
}
