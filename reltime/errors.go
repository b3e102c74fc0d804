package reltime

import "errors"

// ErrMalformedInstant is returned when a timestamp attribute does not parse
// to a valid instant.
var ErrMalformedInstant = errors.New("reltime: malformed instant")

// ErrUnknownLocale is returned when a locale identifier is not a valid
// BCP 47 tag.
var ErrUnknownLocale = errors.New("reltime: unknown locale")
