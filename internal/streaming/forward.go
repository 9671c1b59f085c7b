package streaming

import (
	"errors"
	"io"

	"pipellm/internal/core"
)

// EventReader yields decoded events one at a time and returns io.EOF once
// its source is exhausted.
type EventReader interface {
	Next() (core.StreamEvent, error)
}

// Forward consumes events from r until End, handing every text fragment to
// onFragment before the next event is requested. It returns nil on End and
// an incomplete-stream error when r is exhausted first. Errors from r and
// onFragment are returned unchanged.
func Forward(provider string, r EventReader, onFragment core.FragmentFunc) error {
	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			return core.NewIncompleteStreamError(provider)
		}
		if err != nil {
			return err
		}

		switch event.Kind {
		case core.EventText:
			if err := onFragment(event.Text); err != nil {
				return err
			}
		case core.EventEnd:
			return nil
		}
	}
}
