package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/imu_viewer/internal/orientation"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string
	MQTTClientIDGPS      string

	// Topics
	TopicPose  string
	TopicPlots string
	TopicGPS   string

	// IMU source selection: "bno080", "serial" or "mock"
	IMUSource string

	// BNO080 over I2C
	IMUI2CBus  string
	IMUI2CAddr uint16

	// Microcontroller streaming frames over serial
	IMUSerialPort string
	IMUSerialBaud int

	// Sampling and plotting
	IMUSampleInterval int // milliseconds between frames (25 = 40 Hz)
	BufferCapacity    int // rolling history per channel
	PlotDivisor       int // forward every Nth sample to the plot path
	AxisConvention    string

	// Velocity/position estimation
	EstimateEnabled   bool
	EstimateLeakage   float64
	EstimateBiasAlpha float64
	EstimateZeroVZ    bool

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Web server
	WebServerPort int

	// Display
	DisplayUpdateInterval int // milliseconds

	// Scene: physical board dimensions rendered by the client, meters.
	SceneBoardLength float64
	SceneBoardWidth  float64
	SceneBoardHeight float64
}

// defaults returns a Config prefilled for a 40 Hz BNO080 viewer; the config
// file only needs to override what differs.
func defaults() *Config {
	return &Config{
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDProducer: "imu-viewer-producer",
		MQTTClientIDWeb:      "imu-viewer-web",
		MQTTClientIDDisplay:  "imu-viewer-display",
		MQTTClientIDGPS:      "imu-viewer-gps",
		TopicPose:            "imu/pose",
		TopicPlots:           "imu/plots",
		TopicGPS:             "imu/gps",

		IMUSource:     "bno080",
		IMUI2CAddr:    0x4B,
		IMUSerialPort: "/dev/ttyACM0",
		IMUSerialBaud: 115200,

		IMUSampleInterval: 25,
		BufferCapacity:    200,
		PlotDivisor:       4,
		AxisConvention:    "identity",

		EstimateLeakage:   0.005,
		EstimateBiasAlpha: 0.001,

		GPSSerialPort: "/dev/serial0",
		GPSBaudRate:   9600,

		WebServerPort: 8080,

		DisplayUpdateInterval: 250,

		SceneBoardLength: 0.03,  // 3 cm along X
		SceneBoardWidth:  0.025, // 2.5 cm along Y
		SceneBoardHeight: 0.002, // 2 mm along Z
	}
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once.
//   - configMu: RWMutex; write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
// Missing keys keep their defaults; invalid values are errors.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value

	// Topics
	case "TOPIC_POSE":
		c.TopicPose = value
	case "TOPIC_PLOTS":
		c.TopicPlots = value
	case "TOPIC_GPS":
		c.TopicGPS = value

	// IMU source
	case "IMU_SOURCE":
		switch value {
		case "bno080", "serial", "mock":
			c.IMUSource = value
		default:
			return fmt.Errorf("IMU_SOURCE must be bno080, serial or mock, got %q", value)
		}
	case "IMU_I2C_BUS":
		c.IMUI2CBus = value
	case "IMU_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid IMU_I2C_ADDR %q: %w", value, err)
		}
		c.IMUI2CAddr = uint16(addr)
	case "IMU_SERIAL_PORT":
		c.IMUSerialPort = value
	case "IMU_SERIAL_BAUD":
		baud, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_SERIAL_BAUD %q: %w", value, err)
		}
		c.IMUSerialBaud = baud

	// Sampling and plotting
	case "IMU_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.IMUSampleInterval = interval
	case "BUFFER_CAPACITY":
		capacity, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BUFFER_CAPACITY %q: %w", value, err)
		}
		c.BufferCapacity = capacity
	case "PLOT_DIVISOR":
		divisor, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PLOT_DIVISOR %q: %w", value, err)
		}
		c.PlotDivisor = divisor
	case "AXIS_CONVENTION":
		c.AxisConvention = value

	// Estimation
	case "ESTIMATE_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid ESTIMATE_ENABLED %q: %w", value, err)
		}
		c.EstimateEnabled = enabled
	case "ESTIMATE_LEAKAGE":
		leakage, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid ESTIMATE_LEAKAGE %q: %w", value, err)
		}
		if leakage <= 0 || leakage >= 1 {
			return fmt.Errorf("ESTIMATE_LEAKAGE must be in (0, 1), got %g", leakage)
		}
		c.EstimateLeakage = leakage
	case "ESTIMATE_BIAS_ALPHA":
		alpha, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid ESTIMATE_BIAS_ALPHA %q: %w", value, err)
		}
		if alpha <= 0 || alpha >= 1 {
			return fmt.Errorf("ESTIMATE_BIAS_ALPHA must be in (0, 1), got %g", alpha)
		}
		c.EstimateBiasAlpha = alpha
	case "ESTIMATE_ZERO_VZ":
		zero, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid ESTIMATE_ZERO_VZ %q: %w", value, err)
		}
		c.EstimateZeroVZ = zero

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate

	// Web server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	// Scene dimensions
	case "SCENE_BOARD_LENGTH":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SCENE_BOARD_LENGTH %q: %w", value, err)
		}
		c.SceneBoardLength = v
	case "SCENE_BOARD_WIDTH":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SCENE_BOARD_WIDTH %q: %w", value, err)
		}
		c.SceneBoardWidth = v
	case "SCENE_BOARD_HEIGHT":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SCENE_BOARD_HEIGHT %q: %w", value, err)
		}
		c.SceneBoardHeight = v

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// Validate checks cross-field constraints. Anything wrong here is fatal:
// a pipeline built from a bad config cannot run meaningfully.
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.IMUSampleInterval < 1 {
		return fmt.Errorf("IMU_SAMPLE_INTERVAL must be >= 1 ms, got %d", c.IMUSampleInterval)
	}
	if c.BufferCapacity < 1 {
		return fmt.Errorf("BUFFER_CAPACITY must be >= 1, got %d", c.BufferCapacity)
	}
	if c.PlotDivisor < 1 {
		return fmt.Errorf("PLOT_DIVISOR must be >= 1, got %d", c.PlotDivisor)
	}
	if _, err := orientation.ConventionByName(c.AxisConvention); err != nil {
		return fmt.Errorf("AXIS_CONVENTION: %w (known: %s)",
			err, strings.Join(orientation.ConventionNames(), ", "))
	}
	if c.WebServerPort < 1 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
	}
	if c.IMUSource == "serial" && c.IMUSerialBaud < 1 {
		return fmt.Errorf("IMU_SERIAL_BAUD must be positive, got %d", c.IMUSerialBaud)
	}
	if c.GPSBaudRate < 1 {
		return fmt.Errorf("GPS_BAUD_RATE must be positive, got %d", c.GPSBaudRate)
	}
	return nil
}

// Convention resolves the configured axis convention. Validate has already
// checked the name, so this only fails on an unvalidated Config.
func (c *Config) Convention() (orientation.Convention, error) {
	return orientation.ConventionByName(c.AxisConvention)
}

// Default returns the built-in configuration, for running without a file.
func Default() *Config {
	return defaults()
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once so repeated calls are harmless.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
