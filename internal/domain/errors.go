package domain

import "errors"

// Sentinel errors shared across engine and storage packages.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrFrameworkNotFound = errors.New("compliance framework not found")
)
