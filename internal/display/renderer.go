// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"log/slog"
)

// Surface shows a finished frame. DrawFrame replaces whatever was on screen.
type Surface interface {
	DrawFrame(f *Frame) error
}

// Renderer owns the current page and redraws it on request.
type Renderer struct {
	surface Surface
	page    Page
	frame   Frame
	log     *slog.Logger
}

func NewRenderer(s Surface, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{surface: s, log: log}
}

// Page returns the page shown by the next Refresh.
func (r *Renderer) Page() Page { return r.page }

// NextPage advances to the following page and returns it. The screen is not
// redrawn until the next Refresh.
func (r *Renderer) NextPage() Page {
	r.page = r.page.Next()
	r.log.Info(fmt.Sprintf("Switched to page %d", int(r.page)), "page", r.page.String())
	return r.page
}

// Refresh composes the current page from v and commits it to the surface.
func (r *Renderer) Refresh(v View) error {
	Compose(&r.frame, r.page, v)
	if r.surface == nil {
		return nil
	}
	if err := r.surface.DrawFrame(&r.frame); err != nil {
		return fmt.Errorf("display %s page: %w", r.page, err)
	}
	return nil
}

// Frame returns a copy of the last composed frame.
func (r *Renderer) Frame() Frame { return r.frame.Clone() }
