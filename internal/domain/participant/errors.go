package participant

import "errors"

var (
	// ErrInvalidCatalog indicates catalog data failed validation.
	ErrInvalidCatalog = errors.New("invalid participant catalog")
)
