package main

import "errors"

var (
	// ErrUsage occurs when a command is called with the wrong arguments.
	ErrUsage = errors.New("wrong number of arguments")

	// ErrImageExists occurs when formatting over an existing image without
	// --force.
	ErrImageExists = errors.New("image already exists (use --force)")
)
