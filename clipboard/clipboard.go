// Package clipboard copies agent replies to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	cb "github.com/atotto/clipboard"
)

var ErrUnsupported = errors.New("no clipboard utility available")

func Read() (string, error) {
	if cb.Unsupported {
		return "", ErrUnsupported
	}
	return cb.ReadAll()
}

func Copy(text string) error {
	if cb.Unsupported {
		return ErrUnsupported
	}
	return cb.WriteAll(text)
}

// RoundTrip writes probe, reads it back and restores what was there before.
func RoundTrip(probe string) error {
	prev, err := Read()
	if err != nil {
		return fmt.Errorf("reading clipboard: %w", err)
	}
	defer Copy(prev)

	if err := Copy(probe); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	got, err := Read()
	if err != nil {
		return fmt.Errorf("reading clipboard back: %w", err)
	}
	if got != probe {
		return fmt.Errorf("clipboard returned %q, want %q", got, probe)
	}
	return nil
}
