// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/imu_viewer/internal/app"
	"github.com/relabs-tech/imu_viewer/internal/config"
)

func main() {
	configPath := flag.String("config", "./imu_viewer.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting imu-viewer console (MQTT subscriber)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
