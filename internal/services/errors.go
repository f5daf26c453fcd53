package services

import "errors"

// Service errors
var (
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
	ErrNilDependency    = errors.New("required dependency is nil")
)
