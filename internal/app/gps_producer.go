package app

import (
	"bufio"
	"encoding/json"
	"log"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/imu_viewer/internal/config"
	"github.com/relabs-tech/imu_viewer/internal/gps"
)

// RunGPSProducer opens the GPS serial port, parses NMEA sentences, and
// publishes combined fixes as JSON to the GPS topic. The producer merges
// RMC (position/speed/validity) with GGA (altitude) so the viewer can
// place the object in all three axes.
func RunGPSProducer() error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDGPS)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("GPS producer connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 2) Open GPS serial port ----
	serialOpts := serial.OpenOptions{
		PortName:        cfg.GPSSerialPort,
		BaudRate:        uint(cfg.GPSBaudRate),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("GPS serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	reader := bufio.NewReader(port)

	// Altitude comes from GGA, everything else from RMC; the fix is
	// published on each RMC with the most recent altitude folded in.
	var altitude float64

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("GPS read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy GPS or partial sentences
			continue
		}

		switch sentence.DataType() {
		case nmea.TypeGGA:
			m := sentence.(nmea.GGA)
			altitude = m.Altitude

		case nmea.TypeRMC:
			m := sentence.(nmea.RMC)

			fix := gps.Fix{
				Time:       time.Now(),
				Latitude:   m.Latitude,
				Longitude:  m.Longitude,
				AltitudeM:  altitude,
				SpeedKnots: m.Speed,
				CourseDeg:  m.Course,
				Valid:      m.Validity == nmea.ValidRMC,
			}

			payload, err := json.Marshal(fix)
			if err != nil {
				log.Printf("GPS JSON marshal error: %v", err)
				continue
			}

			token := client.Publish(cfg.TopicGPS, 0, true, payload)
			token.Wait()
			if token.Error() != nil {
				log.Printf("GPS publish error: %v", token.Error())
				continue
			}

		default:
			// ignore other sentence types (GSA, GSV, ...)
		}
	}
}
