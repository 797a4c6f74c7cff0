package domain

import "errors"

// ErrEmptyInput is returned by the engine when the caller supplied no
// usable text. The HTTP layer translates it into a 400 response; every
// other condition resolves to a value in the result data.
var ErrEmptyInput = errors.New("input text is required")
