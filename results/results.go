// Package results owns the per-component CSV writers a simulation run
// streams its state to: one writer per body/joint/sensor/actuator, each
// lazily created the first time it is actually written to, and each
// backed by a reusable row buffer of formatted fields so a save does not
// build a new row slice (each formatted field string is still allocated).
package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/multierr"

	"github.com/nadir-dynamics/nadir/nadirerr"
)

// Writer streams one component's time series to an io.Writer as CSV: one
// row per save, the first column always time.
type Writer struct {
	name    string
	header  []string
	csv     *csv.Writer
	closer  io.Closer
	buffer  []string // reused across every Write call
	started bool
}

// NewWriter creates the underlying file at path and writes its header
// immediately; columns is the list of value column names (time is
// prepended automatically).
func NewWriter(path, name string, columns []string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nadirerr.NewIOError("results", fmt.Sprintf("creating output file for %q", name), err)
	}
	header := append([]string{"time"}, columns...)
	w := &Writer{
		name:   name,
		header: header,
		csv:    csv.NewWriter(f),
		closer: f,
		buffer: make([]string, len(header)),
	}
	if err := w.csv.Write(header); err != nil {
		_ = f.Close()
		return nil, nadirerr.NewIOError("results", fmt.Sprintf("writing header for %q", name), err)
	}
	w.started = true
	return w, nil
}

// Write appends one row: t followed by values, which must match the
// column count this Writer was constructed with.
func (w *Writer) Write(t float64, values []float64) error {
	if len(values) != len(w.header)-1 {
		return nadirerr.NewIOError("results", fmt.Sprintf("%s: expected %d values, got %d", w.name, len(w.header)-1, len(values)), nil)
	}
	w.buffer[0] = strconv.FormatFloat(t, 'g', -1, 64)
	for i, v := range values {
		w.buffer[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	if err := w.csv.Write(w.buffer); err != nil {
		return nadirerr.NewIOError("results", fmt.Sprintf("%s: writing row", w.name), err)
	}
	return nil
}

// Flush flushes any buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		_ = w.closer.Close()
		return err
	}
	return w.closer.Close()
}

// Manager owns every component writer for one simulation run and is the
// target of every save event's init and save callbacks.
type Manager struct {
	dir     string
	writers map[string]*Writer
	specs   map[string][]string // column names, recorded at registration so Writer creation can be deferred
}

// NewManager returns a Manager that creates its files under dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, writers: make(map[string]*Writer), specs: make(map[string][]string)}
}

// Register declares a component's output columns without creating its
// file; the file (and its header) is created lazily by the first Init or
// Write call for that name.
func (m *Manager) Register(name string, columns []string) {
	m.specs[name] = columns
}

// Init lazily creates name's underlying writer if it has not been created
// yet. Safe to call every step; it is a no-op after the first call.
func (m *Manager) Init(name string) error {
	if _, ok := m.writers[name]; ok {
		return nil
	}
	columns, ok := m.specs[name]
	if !ok {
		return nadirerr.NewIOError("results", fmt.Sprintf("writer %q was never registered", name), nil)
	}
	w, err := NewWriter(fmt.Sprintf("%s/%s.csv", m.dir, name), name, columns)
	if err != nil {
		return err
	}
	m.writers[name] = w
	return nil
}

// Write appends a row to name's writer, initializing it first if needed.
func (m *Manager) Write(name string, t float64, values []float64) error {
	if err := m.Init(name); err != nil {
		return err
	}
	return m.writers[name].Write(t, values)
}

// Close flushes and closes every writer that was actually created,
// aggregating any failures instead of stopping at the first one so a
// single bad writer cannot prevent the rest from being flushed.
func (m *Manager) Close() error {
	var errAll error
	for _, w := range m.writers {
		multierr.AppendInto(&errAll, w.Close())
	}
	return errAll
}
