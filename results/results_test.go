package results

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestWriterWritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	w, err := NewWriter(path, "body0", []string{"x", "y"})
	test.That(t, err, test.ShouldBeNil)

	err = w.Write(0.5, []float64{1.0, 2.0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w.Close(), test.ShouldBeNil)

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	test.That(t, len(lines), test.ShouldEqual, 2)
	test.That(t, lines[0], test.ShouldEqual, "time,x,y")
	test.That(t, lines[1], test.ShouldEqual, "0.5,1,2")
}

func TestWriterRejectsMismatchedValueCount(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(filepath.Join(dir, "out.csv"), "body0", []string{"x", "y"})
	test.That(t, err, test.ShouldBeNil)
	defer w.Close()

	err = w.Write(0, []float64{1.0})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestManagerDefersFileCreationUntilFirstWrite(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	m.Register("joint0", []string{"q"})

	if _, err := os.Stat(filepath.Join(dir, "joint0.csv")); !os.IsNotExist(err) {
		t.Fatalf("expected no file before first write")
	}

	err := m.Write("joint0", 0, []float64{1.0})
	test.That(t, err, test.ShouldBeNil)

	_, err = os.Stat(filepath.Join(dir, "joint0.csv"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Close(), test.ShouldBeNil)
}

func TestManagerWriteOnUnregisteredNameFails(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	err := m.Write("missing", 0, []float64{1.0})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestManagerCloseAggregatesAcrossWriters(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	m.Register("a", []string{"v"})
	m.Register("b", []string{"v"})
	test.That(t, m.Write("a", 0, []float64{1}), test.ShouldBeNil)
	test.That(t, m.Write("b", 0, []float64{2}), test.ShouldBeNil)
	test.That(t, m.Close(), test.ShouldBeNil)
}
