// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/imu_viewer/internal/imu"
)

// SHTP channels on the BNO080.
const (
	shtpChannelCommand = 0
	shtpChannelExec    = 1
	shtpChannelControl = 2
	shtpChannelReports = 3
)

// SH-2 report IDs.
const (
	reportAccelerometer  = 0x01
	reportGyroscope      = 0x02
	reportMagnetometer   = 0x03
	reportLinearAccel    = 0x04
	reportRotationVector = 0x05
	reportTimebase       = 0xFB
	cmdSetFeature        = 0xFD
)

// Fixed-point Q points per SH-2 report type.
const (
	qAccel    = 8  // m/s²
	qGyro     = 9  // rad/s
	qMag      = 4  // µT
	qRotation = 14 // unit quaternion
)

const maxPacketLen = 512

// bno080QuatWireOrder documents the rotation-vector payload layout. SH-2
// sends the vector part first: i, j, k, real — that is (x, y, z, w), NOT
// scalar-first. parseRotationVector depends on this; the ordering was
// verified against a physical rotation and is pinned by a fixture test
// in this package. Do not "fix" it to w-first.
const bno080QuatWireOrder = "xyzw"

// BNO080Source reads frames from a BNO080/BNO085 over I2C. The sensor's
// onboard fusion produces the rotation vector; this code only speaks SHTP
// framing and fixed-point decoding.
type BNO080Source struct {
	dev  *i2c.Dev
	bus  i2c.BusCloser
	seq  [6]byte // per-channel outbound sequence numbers
	last imu.RawFrame
}

// NewBNO080Source opens the I2C bus (empty name = first available), resets
// the sensor and enables the five reports the pipeline consumes at the
// given interval.
func NewBNO080Source(busName string, addr uint16, interval time.Duration) (*BNO080Source, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open I2C bus %q: %w", busName, err)
	}

	s := &BNO080Source{
		dev: &i2c.Dev{Bus: bus, Addr: addr},
		bus: bus,
	}

	if err := s.softReset(); err != nil {
		bus.Close()
		return nil, fmt.Errorf("BNO080 reset: %w", err)
	}

	us := uint32(interval.Microseconds())
	for _, id := range []byte{
		reportAccelerometer,
		reportGyroscope,
		reportMagnetometer,
		reportRotationVector,
		reportLinearAccel,
	} {
		if err := s.setFeature(id, us); err != nil {
			bus.Close()
			return nil, fmt.Errorf("BNO080 enable report 0x%02X: %w", id, err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	log.Printf("BNO080 initialized at 0x%02X, report interval %s", addr, interval)
	return s, nil
}

// ReadFrame drains pending SHTP packets and returns a frame assembled from
// the most recent value of each report. The rotation vector may lag the
// raw channels by one report interval; that is inherent to the sensor's
// report scheduling.
func (s *BNO080Source) ReadFrame() (imu.RawFrame, error) {
	// Drain whatever the sensor has queued since the last tick.
	for i := 0; i < 8; i++ {
		packet, err := s.readPacket()
		if err != nil {
			return imu.RawFrame{}, fmt.Errorf("%w: %v", imu.ErrSensorRead, err)
		}
		if packet == nil {
			break
		}
		if packet.channel == shtpChannelReports {
			s.parseReports(packet.payload)
		}
	}
	frame := s.last
	frame.Time = time.Now()
	return frame, nil
}

// Close releases the I2C bus.
func (s *BNO080Source) Close() error {
	return s.bus.Close()
}

type shtpPacket struct {
	channel byte
	payload []byte
}

// readPacket reads one SHTP packet, or nil when the sensor has nothing
// queued (header of all zeros).
func (s *BNO080Source) readPacket() (*shtpPacket, error) {
	var header [4]byte
	if err := s.dev.Tx(nil, header[:]); err != nil {
		return nil, err
	}

	length := int(binary.LittleEndian.Uint16(header[:2])) & 0x7FFF
	if length == 0 {
		return nil, nil
	}
	if length > maxPacketLen {
		length = maxPacketLen
	}

	// The full packet, header included, must be read in one transaction.
	buf := make([]byte, length)
	if err := s.dev.Tx(nil, buf); err != nil {
		return nil, err
	}

	return &shtpPacket{channel: buf[2], payload: buf[4:]}, nil
}

func (s *BNO080Source) writePacket(channel byte, payload []byte) error {
	buf := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint16(buf[:2], uint16(len(buf)))
	buf[2] = channel
	buf[3] = s.seq[channel]
	s.seq[channel]++
	copy(buf[4:], payload)
	return s.dev.Tx(buf, nil)
}

func (s *BNO080Source) softReset() error {
	if err := s.writePacket(shtpChannelExec, []byte{1}); err != nil {
		return err
	}
	time.Sleep(500 * time.Millisecond)
	// Discard the advertisement and reset-complete packets.
	for i := 0; i < 8; i++ {
		packet, err := s.readPacket()
		if err != nil {
			return err
		}
		if packet == nil {
			break
		}
	}
	return nil
}

// setFeature sends an SH-2 Set Feature command enabling periodic reports.
func (s *BNO080Source) setFeature(reportID byte, intervalUS uint32) error {
	payload := make([]byte, 17)
	payload[0] = cmdSetFeature
	payload[1] = reportID
	binary.LittleEndian.PutUint32(payload[5:9], intervalUS)
	// flags, change sensitivity, batch interval and sensor-specific config
	// stay zero.
	return s.writePacket(shtpChannelControl, payload)
}

// parseReports walks the concatenated sensor reports in one SHTP cargo and
// updates the latest-value cache.
func (s *BNO080Source) parseReports(payload []byte) {
	i := 0
	for i < len(payload) {
		switch payload[i] {
		case reportTimebase:
			// 1 byte ID + 4 byte timebase delta; we stamp frames with
			// host time, so only skip it.
			i += 5
		case reportAccelerometer:
			if v, ok := vec3At(payload, i, qAccel); ok {
				s.last.Accel = v
			}
			i += 10
		case reportGyroscope:
			if v, ok := vec3At(payload, i, qGyro); ok {
				s.last.Gyro = v
			}
			i += 10
		case reportMagnetometer:
			if v, ok := vec3At(payload, i, qMag); ok {
				s.last.Mag = v
			}
			i += 10
		case reportLinearAccel:
			if v, ok := vec3At(payload, i, qAccel); ok {
				s.last.LinAccel = v
			}
			i += 10
		case reportRotationVector:
			s.parseRotationVector(payload, i)
			i += 14
		default:
			// Unknown report: we cannot know its length, stop parsing
			// this cargo.
			return
		}
	}
}

// parseRotationVector decodes the fused quaternion. Wire order is i, j, k,
// real = (x, y, z, w); see bno080QuatWireOrder.
func (s *BNO080Source) parseRotationVector(payload []byte, off int) {
	// 4 byte report header, then four int16 components.
	if off+12 > len(payload) {
		return
	}
	s.last.QuatX = fixedPoint(payload, off+4, qRotation)
	s.last.QuatY = fixedPoint(payload, off+6, qRotation)
	s.last.QuatZ = fixedPoint(payload, off+8, qRotation)
	s.last.QuatW = fixedPoint(payload, off+10, qRotation)
}

// vec3At decodes the three int16 components following a report's 4-byte
// header (ID, sequence, status, delay).
func vec3At(payload []byte, off, q int) (imu.Vec3, bool) {
	if off+10 > len(payload) {
		return imu.Vec3{}, false
	}
	return imu.Vec3{
		X: fixedPoint(payload, off+4, q),
		Y: fixedPoint(payload, off+6, q),
		Z: fixedPoint(payload, off+8, q),
	}, true
}

func fixedPoint(payload []byte, off, q int) float64 {
	raw := int16(binary.LittleEndian.Uint16(payload[off : off+2]))
	return float64(raw) / float64(int32(1)<<q)
}
