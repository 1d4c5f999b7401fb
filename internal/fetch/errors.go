package fetch

import "errors"

var (
	// ErrTooLarge is returned when an attachment exceeds the size limit.
	ErrTooLarge = errors.New("attachment exceeds maximum size")

	// ErrUnexpectedStatus is returned for non-2xx HTTP responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrNotText is returned when attachment content is not valid UTF-8 text.
	ErrNotText = errors.New("attachment is not UTF-8 text")
)
