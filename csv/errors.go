package csv

import "errors"

var (
	// ErrBadDelimiter is returned when the leading delimiter byte is not a comma or tab.
	ErrBadDelimiter = errors.New("delimiter character should be comma or tab")

	// ErrTruncatedHeader is returned when the stream ends inside the header.
	ErrTruncatedHeader = errors.New("hit end of stream while parsing header")

	// ErrNoFields is returned when the header names no fields.
	ErrNoFields = errors.New("header names no fields")

	// ErrFieldCount is returned when a record's value count does not match the header.
	ErrFieldCount = errors.New("wrong number of field values")
)
