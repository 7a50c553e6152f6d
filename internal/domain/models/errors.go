package models

import "errors"

var (
	// ErrFetch marks a single series that could not be fetched.
	ErrFetch = errors.New("series fetch failed")
	// ErrAlignmentEmpty means no usable series survived the merge.
	ErrAlignmentEmpty = errors.New("no data after alignment")
	// ErrMissingStats means inversion was requested for a series never differenced.
	ErrMissingStats = errors.New("series stats not found")
	// ErrFitFailure means no VAR model is available for the request.
	ErrFitFailure = errors.New("var fit failed")
	// ErrDispatch marks a failed alert delivery.
	ErrDispatch = errors.New("alert dispatch failed")
	// ErrInsufficientData means a series is too short for the requested transform.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUnknownSeries means the identifier is not present in the panel or catalog.
	ErrUnknownSeries = errors.New("unknown series")
	// ErrForecastNotFound means no stored forecast matches the id.
	ErrForecastNotFound = errors.New("forecast not found")
	// ErrModelService means the external volatility model service failed.
	ErrModelService = errors.New("model service failed")
)
