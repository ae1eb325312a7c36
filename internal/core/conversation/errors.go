package conversation

import "errors"

var (
	// ErrInvalidSessionID はセッション ID が空の場合に返却されます。
	ErrInvalidSessionID = errors.New("conversation: invalid session id")
	// ErrInvalidSender は送り手が不正な場合に返却されます。
	ErrInvalidSender = errors.New("conversation: invalid sender")
)
