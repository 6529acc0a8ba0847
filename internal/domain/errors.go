package domain

import "errors"

var (
	ErrListingFailed      = errors.New("channel listing failed")
	ErrGeoBlocked         = errors.New("blocked in country")
	ErrAllCodesExhausted  = errors.New("blocked in all countries on the list")
	ErrPersistence        = errors.New("failed to persist state")
	ErrRecordNotFound     = errors.New("video record not found")
	ErrInvalidDate        = errors.New("invalid date expression")
	ErrInvalidChannelLine = errors.New("invalid channel list line")
)
