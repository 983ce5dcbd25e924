package spreadsheet

import "errors"

// Sentinel kinds for spreadsheet errors.
var (
	ErrOpen    = errors.New("open spreadsheet failed")
	ErrNoSheet = errors.New("spreadsheet has no sheets")
	ErrWrite   = errors.New("write spreadsheet failed")
)
