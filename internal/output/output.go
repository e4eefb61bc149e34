// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package output is the capability through which extensions produce visible
// output. Extensions never write to the terminal directly; they are handed a
// Sink when they are constructed.
package output

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Event is one piece of output produced by a block.
type Event struct {
	Extension string
	Opcode    string
	Text      string
}

// Sink receives output events. Implementations must be safe for concurrent use.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// WriterSink writes each event as a line to an io.Writer.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	prefix bool
}

// NewWriterSink returns a sink writing to w. With prefix set, every line is
// preceded by "[extension.opcode]".
func NewWriterSink(w io.Writer, prefix bool) *WriterSink {
	return &WriterSink{w: w, prefix: prefix}
}

// Emit implements Sink.
func (s *WriterSink) Emit(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.prefix {
		_, err = fmt.Fprintf(s.w, "[%s.%s] %s\n", ev.Extension, ev.Opcode, ev.Text)
	} else {
		_, err = fmt.Fprintln(s.w, ev.Text)
	}
	return err
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink.
func (r *Recorder) Emit(ctx context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(context.Context, Event) error { return nil }
