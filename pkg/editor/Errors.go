package editor

import (
	"errors"
	"fmt"

	"github.com/adampresley/galleria/pkg/models"
	"github.com/rfberaldo/sqlz"
)

var (
	ErrFetchFailed     = fmt.Errorf("fetch failed")
	ErrInvalidResponse = fmt.Errorf("invalid response")
	ErrNotFound        = fmt.Errorf("not found")
	ErrInvariant       = fmt.Errorf("collection invariant violated")
)

/*
classifyStoreError folds whatever a store or lookup call returned into
one of the package sentinels so callers can test with errors.Is without
knowing what backs the store.
*/
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrFetchFailed),
		errors.Is(err, ErrInvalidResponse),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvariant):
		return err

	case sqlz.IsNotFound(err),
		errors.Is(err, models.ErrGalleryNotFound),
		errors.Is(err, models.ErrMemberNotFound),
		errors.Is(err, models.ErrImageNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)

	default:
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
}
