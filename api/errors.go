// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values shared by transports, pools and sessions.

package api

import "errors"

// Common errors used across the module.
var (
	ErrTransportClosed = errors.New("transport is closed")
	ErrBufferInFlight  = errors.New("buffer already lent to an in-flight operation")
	ErrPoolClosed      = errors.New("buffer pool is closed")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidAddress  = errors.New("invalid socket address")
	ErrNotSupported    = errors.New("operation not supported")
)
