// Package filesystem routes all file access through a swappable afero backend.
//
// Production code uses the OS filesystem. Tests switch to an in-memory one.
package filesystem

import "github.com/spf13/afero"

var backend = afero.Afero{Fs: afero.NewOsFs()}

// API returns the active backend.
func API() afero.Afero {
	return backend
}

// SetOsFs switches to the OS filesystem.
func SetOsFs() {
	backend = afero.Afero{Fs: afero.NewOsFs()}
}

// SetMemMapFs switches to a fresh in-memory filesystem.
func SetMemMapFs() {
	backend = afero.Afero{Fs: afero.NewMemMapFs()}
}
