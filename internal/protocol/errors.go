package protocol

import "errors"

var (
	ErrInvalidLength      = errors.New("invalid packet length")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	ErrUnknownCommand     = errors.New("unknown command")
)
