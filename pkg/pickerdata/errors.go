package pickerdata

import "errors"

var (
	// ErrInvalidDocument indicates data that does not look like a picker
	// document (missing the required "tabs" object).
	ErrInvalidDocument = errors.New("invalid picker document")

	// ErrMissingID indicates a button record without an "id" string.
	ErrMissingID = errors.New("button record missing id")

	errNotJSONFile  = errors.New("file must be a .json file")
	errEmptyPath    = errors.New("path is empty")
	errNegativeTime = errors.New("durations must not be negative")
	errNegativeMax  = errors.New("max undo steps must not be negative")
)
