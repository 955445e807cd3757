// SPDX-License-Identifier: MIT
package transport

// Transport delivers diagnostics records. Send must not block the control
// loop: implementations queue or drop. Implementations are safe for
// concurrent use.
type Transport interface {
	Send(data any) error
	Close() error
}

// PlotterLiner is implemented by records that have a serial-plotter form,
// e.g. "MinRange:-1000,Volume:12.5,...".
type PlotterLiner interface {
	PlotterLine() string
}
