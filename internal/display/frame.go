// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display composes the node's pages and draws them on a surface.
package display

import (
	"fmt"
	"strings"
)

// Line is one row of text. Size 2 doubles the glyphs in both directions.
type Line struct {
	Text string `json:"text"`
	Size int    `json:"size"`
}

// Frame is the content of one screen, top to bottom.
type Frame struct {
	Lines []Line `json:"lines"`
}

// Reset empties the frame, keeping its storage.
func (f *Frame) Reset() { f.Lines = f.Lines[:0] }

// Title adds a size-2 line.
func (f *Frame) Title(text string) { f.Lines = append(f.Lines, Line{Text: text, Size: 2}) }

// Printf adds a size-1 line.
func (f *Frame) Printf(format string, args ...any) {
	f.Lines = append(f.Lines, Line{Text: fmt.Sprintf(format, args...), Size: 1})
}

// Text adds a size-1 line verbatim.
func (f *Frame) Text(text string) { f.Lines = append(f.Lines, Line{Text: text, Size: 1}) }

// Blank adds an empty size-1 line.
func (f *Frame) Blank() { f.Text("") }

// Clone returns a deep copy.
func (f *Frame) Clone() Frame {
	return Frame{Lines: append([]Line(nil), f.Lines...)}
}

// String renders the frame as plain text, one line per row.
func (f *Frame) String() string {
	var b strings.Builder
	for _, l := range f.Lines {
		if l.Size > 1 {
			b.WriteString(strings.ToUpper(l.Text))
		} else {
			b.WriteString(l.Text)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
