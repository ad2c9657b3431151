// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"io"
	"strings"
)

// TextSurface prints frames to a writer inside a box, for benches without a
// panel.
type TextSurface struct {
	w     io.Writer
	width int
}

func NewTextSurface(w io.Writer, width int) *TextSurface {
	if width <= 0 {
		width = 22
	}
	return &TextSurface{w: w, width: width}
}

func (t *TextSurface) DrawFrame(f *Frame) error {
	var b strings.Builder
	rule := "+" + strings.Repeat("-", t.width) + "+\n"
	b.WriteString(rule)
	for _, line := range strings.Split(strings.TrimSuffix(f.String(), "\n"), "\n") {
		r := []rune(line)
		if len(r) > t.width {
			r = r[:t.width]
		}
		fmt.Fprintf(&b, "|%-*s|\n", t.width, string(r))
	}
	b.WriteString(rule)
	_, err := io.WriteString(t.w, b.String())
	return err
}
