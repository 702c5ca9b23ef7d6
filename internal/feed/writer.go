// Package feed writes the XML feeds consumed by the recommendation platform.
package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrClosed is returned when writing to a committed or aborted feed.
var ErrClosed = errors.New("feed: writer closed")

// Writer streams one feed document into a temporary file and publishes it
// with a rename on Commit, so an aborted pass never leaves a partial feed.
type Writer struct {
	path   string
	root   string
	file   *os.File
	enc    *xml.Encoder
	count  int
	closed bool
}

// Create opens a feed named name under dir with the given root element.
func Create(dir, name, root string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("feed: create dir: %w", err)
	}
	file, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("feed: create temp: %w", err)
	}
	w := &Writer{
		path: filepath.Join(dir, name),
		root: root,
		file: file,
		enc:  xml.NewEncoder(file),
	}
	w.enc.Indent("", "  ")
	if _, err := file.WriteString(xml.Header); err != nil {
		_ = w.Abort()
		return nil, fmt.Errorf("feed: write header: %w", err)
	}
	if err := w.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: root}}); err != nil {
		_ = w.Abort()
		return nil, fmt.Errorf("feed: open root: %w", err)
	}
	return w, nil
}

// Path returns the final location of the feed.
func (w *Writer) Path() string { return w.path }

// Count returns the number of top-level items written.
func (w *Writer) Count() int { return w.count }

// Encode writes v as one top-level item.
func (w *Writer) Encode(v any) error {
	if w.closed {
		return ErrClosed
	}
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("feed: encode item: %w", err)
	}
	w.count++
	return nil
}

// Start opens a nested element.
func (w *Writer) Start(name string) error {
	if w.closed {
		return ErrClosed
	}
	return w.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}})
}

// End closes a nested element opened with Start.
func (w *Writer) End(name string) error {
	if w.closed {
		return ErrClosed
	}
	return w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

// Element writes <name>text</name>.
func (w *Writer) Element(name, text string) error {
	if w.closed {
		return ErrClosed
	}
	return w.enc.EncodeElement(text, xml.StartElement{Name: xml.Name{Local: name}})
}

// Commit closes the document and moves it into place.
func (w *Writer) Commit() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	tmp := w.file.Name()
	err := w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: w.root}})
	if err == nil {
		err = w.enc.Flush()
	}
	if err == nil {
		_, err = w.file.WriteString("\n")
	}
	if err == nil {
		err = w.file.Sync()
	}
	if closeErr := w.file.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp, w.path)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("feed: commit %s: %w", w.path, err)
	}
	return nil
}

// Abort discards the feed. It is a no-op after Commit.
func (w *Writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	tmp := w.file.Name()
	_ = w.file.Close()
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("feed: abort: %w", err)
	}
	return nil
}
