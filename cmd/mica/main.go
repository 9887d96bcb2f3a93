// Package main provides the Mica CLI.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/mica-ml/mica/array"
	"github.com/mica-ml/mica/device"
	"github.com/mica-ml/mica/internal/device/webgpu"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Mica %s\n", version)
			return
		case "devices":
			listDevices()
			return
		}
	}

	fmt.Println("Mica - Device-Aware Array Allocation for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  devices    List available device memory spaces")
}

func listDevices() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	arenas := []device.Arena{device.NewHostArena("host")}
	if gpu, err := webgpu.New(); err != nil {
		log.Warn().Err(err).Msg("webgpu arena unavailable")
	} else {
		arenas = append(arenas, gpu)
	}

	reg := device.NewRegistry(log, arenas...)
	defer reg.Close()

	f := array.NewFactory(reg)
	for dev := 0; dev < reg.Count(); dev++ {
		status := "ok"
		if h, err := f.Zeros(dev, array.Shape{16, 16}, nil, false); err != nil {
			status = err.Error()
		} else {
			h.Release()
		}
		fmt.Printf("device %d: %s (%s)\n", dev, reg.Name(dev), status)
	}
}
