// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"

	"github.com/pdiddy/pdf-image-extract/internal/extract"
)

// Exit codes. A missing source PDF exits 0 unless --strict is set.
const (
	exitOK           = 0
	exitUsage        = 1
	exitNotFound     = 2
	exitDocumentOpen = 3
	exitDecode       = 4
	exitEncode       = 5
	exitIO           = 6
)

// exitError carries an explicit exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string { return e.err.Error() }

func (e exitError) Unwrap() error { return e.err }

// exitCode maps an error returned by the root command to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	switch {
	case errors.Is(err, extract.ErrDocumentOpen):
		return exitDocumentOpen
	case errors.Is(err, extract.ErrDecode):
		return exitDecode
	case errors.Is(err, extract.ErrEncode):
		return exitEncode
	case errors.Is(err, extract.ErrOutput):
		return exitIO
	}
	// Flag parsing and other cobra errors.
	return exitUsage
}
