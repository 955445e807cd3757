// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	applog "ledvu/internal/log"
)

// PlotterTransport writes one line per record to an io.Writer, in the
// key:value format understood by serial plotters. Writes happen on a
// background goroutine; Send drops records when the queue is full.
type PlotterTransport struct {
	out     io.Writer
	queue   chan any
	dropped atomic.Uint64

	closeOnce sync.Once
	done      chan struct{}
}

// NewPlotterTransport starts a plotter writing to out with a queue of size
// records.
func NewPlotterTransport(out io.Writer, size int) *PlotterTransport {
	if size < 1 {
		size = 1
	}
	pt := &PlotterTransport{
		out:   out,
		queue: make(chan any, size),
		done:  make(chan struct{}),
	}
	go pt.run()
	applog.Debugf("PlotterTransport: Started (queue %d)", size)
	return pt
}

func (pt *PlotterTransport) run() {
	defer close(pt.done)
	for data := range pt.queue {
		var line string
		if pl, ok := data.(PlotterLiner); ok {
			line = pl.PlotterLine()
		} else {
			line = fmt.Sprint(data)
		}
		if _, err := io.WriteString(pt.out, line+"\n"); err != nil {
			applog.Debugf("PlotterTransport: Write error: %v", err)
		}
	}
}

// Send queues data for writing.
func (pt *PlotterTransport) Send(data any) error {
	select {
	case pt.queue <- data:
	default:
		pt.dropped.Add(1)
	}
	return nil
}

// Dropped returns how many records were discarded because the queue was full.
func (pt *PlotterTransport) Dropped() uint64 { return pt.dropped.Load() }

// Close flushes queued records and stops the writer. Send must not be called
// after Close.
func (pt *PlotterTransport) Close() error {
	pt.closeOnce.Do(func() {
		close(pt.queue)
	})
	<-pt.done
	if n := pt.Dropped(); n > 0 {
		applog.Debugf("PlotterTransport: Dropped %d records", n)
	}
	return nil
}

var _ Transport = (*PlotterTransport)(nil)
