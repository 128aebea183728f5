package audit

import (
	"context"
	"errors"

	"github.com/Sentinel-Gate/toolgate/internal/domain/audit"
)

// MultiRecorder records every event to each of its recorders in turn.
// A failing recorder does not stop the others.
type MultiRecorder []audit.Recorder

// Record implements audit.Recorder.
func (m MultiRecorder) Record(ctx context.Context, event audit.Event) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
