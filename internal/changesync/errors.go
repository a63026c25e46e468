package changesync

import "errors"

var (
	ErrSubscriberLagged = errors.New("subscriber fell behind and was dropped")
	ErrOutOfSync        = errors.New("peer history out of sync")
	ErrRateLimited      = errors.New("peer rate limited")
	ErrHubClosed        = errors.New("hub closed")
	ErrEmptyChange      = errors.New("change does nothing")
)
