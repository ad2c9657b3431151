// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	marginX    = 2
	glyphWidth = 7
	lineHeight = 13 // basicfont.Face7x13
	ascent     = 11
)

var (
	paper = color.Gray{Y: 255}
	ink   = color.Gray{Y: 0}
)

// Rasterize draws f black on white into an image of the given bounds.
// Lines that do not fit are clipped.
func Rasterize(f *Frame, bounds image.Rectangle) *image.Gray {
	img := image.NewGray(bounds)
	draw.Draw(img, img.Bounds(), &image.Uniform{paper}, image.Point{}, draw.Src)

	y := bounds.Min.Y
	for _, l := range f.Lines {
		size := l.Size
		if size < 1 {
			size = 1
		}
		if size == 1 {
			text(img, bounds.Min.X+marginX, y+ascent, l.Text)
		} else {
			scaledText(img, bounds.Min.X+marginX, y, l.Text, size)
		}
		y += lineHeight * size
		if y >= bounds.Max.Y {
			break
		}
	}
	return img
}

func text(img draw.Image, x, baseline int, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(ink),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

// scaledText draws s at 1x into a scratch line and scales it up with
// nearest-neighbour sampling so the glyphs stay crisp.
func scaledText(dst *image.Gray, x, top int, s string, size int) {
	if s == "" {
		return
	}
	line := image.NewGray(image.Rect(0, 0, len(s)*glyphWidth, lineHeight))
	draw.Draw(line, line.Bounds(), &image.Uniform{paper}, image.Point{}, draw.Src)
	text(line, 0, ascent, s)

	dr := image.Rect(x, top, x+line.Rect.Dx()*size, top+lineHeight*size)
	xdraw.NearestNeighbor.Scale(dst, dr, line, line.Bounds(), xdraw.Src, nil)
}
