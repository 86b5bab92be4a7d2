package httpprobe

import "errors"

var (
	// ErrNoAddress is returned when an agent has no usable IP address.
	ErrNoAddress = errors.New("httpprobe: agent has no address")

	// ErrUnexpectedStatus is returned when an agent answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("httpprobe: unexpected status")
)
