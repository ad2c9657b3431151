// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v4"
)

type panel interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Sleep() error
	Halt() error
}

// EPaper is a Waveshare 2.13" v4 e-paper HAT. Each frame is a full refresh.
type EPaper struct {
	dev panel
}

// OpenEPaper initializes the panel on port and clears it to white.
func OpenEPaper(port spi.Port) (*EPaper, error) {
	opts := waveshare2in13v4.EPD2in13v4
	dev, err := waveshare2in13v4.NewHat(port, &opts)
	if err != nil {
		return nil, fmt.Errorf("e-paper: %w", err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("e-paper init: %w", err)
	}
	if err := dev.Clear(color.White); err != nil {
		return nil, fmt.Errorf("e-paper clear: %w", err)
	}
	return &EPaper{dev: dev}, nil
}

func (e *EPaper) DrawFrame(f *Frame) error {
	bounds := e.dev.Bounds()
	gray := Rasterize(f, bounds)
	img := image1bit.NewVerticalLSB(bounds)
	draw.Draw(img, bounds, gray, bounds.Min, draw.Src)
	if err := e.dev.Draw(bounds, img, image.Point{}); err != nil {
		return fmt.Errorf("e-paper draw: %w", err)
	}
	return nil
}

// Close puts the panel to sleep. The last frame stays visible.
func (e *EPaper) Close() error {
	if err := e.dev.Sleep(); err != nil {
		return fmt.Errorf("e-paper sleep: %w", err)
	}
	return e.dev.Halt()
}
