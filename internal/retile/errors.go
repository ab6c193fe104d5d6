package retile

import "errors"

// ErrFormatConflict is returned when a google-format request targets a
// table that already holds fitted-format tiles (spec §3's mutually
// exclusive addressing rule; a fitted request against a google table
// is silently upgraded to google instead of failing).
var ErrFormatConflict = errors.New("retile: request format conflicts with stored table format")

// ErrConfig marks a caller configuration error detected before Phase 1
// begins (e.g. an invalid bounding box).
var ErrConfig = errors.New("retile: invalid configuration")
