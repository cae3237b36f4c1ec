// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// IsExpectedCloseError reports whether err is a normal connection termination:
// EOF, closed connection, broken pipe, or connection reset. These errors occur
// during normal teardown of a streaming HTTP response (chunked log or firmware
// transfer) when the client disconnects mid-copy and the in-flight write fails
// as a result.
//
// A client that aborts the connection rather than reading to EOF produces
// ECONNRESET and EPIPE instead of a clean close. All four are expected and
// should not be logged as handler errors.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
