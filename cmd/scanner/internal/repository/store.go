package repository

import (
	"context"

	"github.com/seepananikhil/PennyWhales/pkg/models"
)

// StateStore persists the cross-run processed-ticker set.
type StateStore interface {
	LoadState(ctx context.Context) (models.ScanState, error)
	SaveState(ctx context.Context, state models.ScanState) error
}

// ResultsStore persists one run's ranked output.
type ResultsStore interface {
	SaveResults(ctx context.Context, results *models.ScanResults) error
}
