package app

import (
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/imu_viewer/internal/config"
	"github.com/relabs-tech/imu_viewer/internal/imu"
	"github.com/relabs-tech/imu_viewer/internal/sensors"
)

// newFrameSource builds the configured frame source.
func newFrameSource(cfg *config.Config) (imu.FrameSource, error) {
	switch cfg.IMUSource {
	case "bno080":
		interval := time.Duration(cfg.IMUSampleInterval) * time.Millisecond
		return sensors.NewBNO080Source(cfg.IMUI2CBus, cfg.IMUI2CAddr, interval)
	case "serial":
		return sensors.NewSerialSource(cfg.IMUSerialPort, uint(cfg.IMUSerialBaud))
	case "mock":
		log.Println("using mock frame source")
		return sensors.NewMockSource(), nil
	default:
		return nil, fmt.Errorf("unknown IMU source %q", cfg.IMUSource)
	}
}
