package domain

import "errors"

// Error classes used across the pipeline. Only ErrConfiguration fails a cycle;
// the rest are absorbed by the stage that raised them.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrFetch         = errors.New("fetch error")
	ErrParse         = errors.New("parse error")
	ErrEnrichment    = errors.New("enrichment error")
	ErrStorage       = errors.New("storage error")
)

// Source administration errors.
var (
	ErrSourceExists   = errors.New("source already exists")
	ErrSourceNotFound = errors.New("source not found")
	ErrInvalidSource  = errors.New("invalid source")
)
