package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrCatalogUnavailable = errors.New("schema catalog unavailable")
	ErrNoCandidate        = errors.New("no candidate query available")
	ErrInvalidDialect     = errors.New("invalid target dialect")
	ErrSynonymShadows     = errors.New("synonym would shadow a canonical table name")
)
