// Package display defines the frame pushed to presentation sinks and the sinks themselves.
package display

import (
	"context"
	"errors"

	"glucosewatch/internal/classify"
	"glucosewatch/internal/rebin"
)

// Frame is everything a sink needs to draw one update.
type Frame struct {
	Label      string
	Sparkline  string
	LastUpdate string
	Icon       classify.IconKey
	State      classify.State
	// HasReading is false until the first reading is known; Label then holds a placeholder.
	HasReading   bool
	FetchFailing bool
	Buckets      rebin.Buckets
}

// Display accepts frames.
type Display interface {
	Show(ctx context.Context, frame Frame) error
}

// Multi fans a frame out to every sink and joins their errors.
type Multi []Display

// Show implements Display.
func (m Multi) Show(ctx context.Context, frame Frame) error {
	var errs []error
	for _, d := range m {
		if d == nil {
			continue
		}
		if err := d.Show(ctx, frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func adapts a function to Display.
type Func func(ctx context.Context, frame Frame) error

// Show implements Display.
func (f Func) Show(ctx context.Context, frame Frame) error {
	return f(ctx, frame)
}
