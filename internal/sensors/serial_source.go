package sensors

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/imu_viewer/internal/imu"
)

// SerialSource reads frames from a microcontroller streaming CSV lines.
// Two line shapes are accepted:
//
//	qx,qy,qz,qw
//	qx,qy,qz,qw,gx,gy,gz,ax,ay,az,mx,my,mz,lx,ly,lz
//
// The quaternion comes first and in x,y,z,w order — the same i,j,k,real
// ordering the sensor reports natively, so firmware can print the report
// verbatim. Short lines leave the raw channels at zero, which suits
// orientation-only firmware.
type SerialSource struct {
	port   io.ReadCloser
	reader *bufio.Reader
}

// NewSerialSource opens the serial port in 8N1 framing.
func NewSerialSource(portName string, baud uint) (*SerialSource, error) {
	opts := serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return &SerialSource{port: port, reader: bufio.NewReader(port)}, nil
}

// ReadFrame blocks until a parseable line arrives. Partial or garbled lines
// (common right after opening the port mid-stream) are skipped rather than
// surfaced.
func (s *SerialSource) ReadFrame() (imu.RawFrame, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return imu.RawFrame{}, fmt.Errorf("%w: %v", imu.ErrSensorRead, err)
		}

		frame, ok := parseFrameLine(strings.TrimSpace(line))
		if !ok {
			continue
		}
		frame.Time = time.Now()
		return frame, nil
	}
}

// Close closes the serial port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}

func parseFrameLine(line string) (imu.RawFrame, bool) {
	if line == "" {
		return imu.RawFrame{}, false
	}
	parts := strings.Split(line, ",")
	if len(parts) != 4 && len(parts) != 16 {
		return imu.RawFrame{}, false
	}

	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return imu.RawFrame{}, false
		}
		vals[i] = v
	}

	frame := imu.RawFrame{
		QuatX: vals[0], QuatY: vals[1], QuatZ: vals[2], QuatW: vals[3],
	}
	if len(vals) == 16 {
		frame.Gyro = imu.Vec3{X: vals[4], Y: vals[5], Z: vals[6]}
		frame.Accel = imu.Vec3{X: vals[7], Y: vals[8], Z: vals[9]}
		frame.Mag = imu.Vec3{X: vals[10], Y: vals[11], Z: vals[12]}
		frame.LinAccel = imu.Vec3{X: vals[13], Y: vals[14], Z: vals[15]}
	}
	return frame, true
}
