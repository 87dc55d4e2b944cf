// Package bookmark persists a spool reader's resume cursor in a small
// YAML file.
package bookmark

import (
	"errors"
	"fmt"
	"os"

	"github.com/seedtray/unified2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Load when no bookmark has been saved.
var ErrNotFound = errors.New("bookmark: not found")

type Bookmark struct {
	fs   afero.Fs
	path string
}

// New returns a bookmark stored at path. A nil fs uses the OS filesystem.
func New(fs afero.Fs, path string) *Bookmark {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Bookmark{fs: fs, path: path}
}

func (b *Bookmark) Path() string {
	return b.path
}

func (b *Bookmark) Load() (unified2.Cursor, error) {
	data, err := afero.ReadFile(b.fs, b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return unified2.Cursor{}, ErrNotFound
		}
		return unified2.Cursor{}, fmt.Errorf("could not read bookmark %q: %w", b.path, err)
	}
	var c unified2.Cursor
	if err := yaml.Unmarshal(data, &c); err != nil {
		return unified2.Cursor{}, fmt.Errorf("could not parse bookmark %q: %w", b.path, err)
	}
	if c.IsZero() {
		return unified2.Cursor{}, ErrNotFound
	}
	if c.Offset < 0 {
		return unified2.Cursor{}, fmt.Errorf("bookmark %q has negative offset %d", b.path, c.Offset)
	}
	return c, nil
}

// Save replaces the stored cursor. The file is written next to the
// bookmark and renamed over it, so a crash leaves either the old or the
// new cursor.
func (b *Bookmark) Save(c unified2.Cursor) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	tmp := b.path + ".tmp"
	if err := afero.WriteFile(b.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("could not write bookmark %q: %w", tmp, err)
	}
	if err := b.fs.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("could not replace bookmark %q: %w", b.path, err)
	}
	return nil
}

func (b *Bookmark) Remove() error {
	if err := b.fs.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
