// SPDX-License-Identifier: MIT

package media

import (
	"errors"
	"fmt"
)

// Closed error taxonomy for the media core. The HTTP layer translates these
// into status codes; no raw filesystem error detail crosses that boundary.
var (
	ErrNotFound            = errors.New("not found")
	ErrTypeNotAllowed      = errors.New("file type not allowed")
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)

// RangeError reports an unsatisfiable or malformed byte range. It carries the
// file size so the HTTP layer can emit "Content-Range: bytes */<size>".
type RangeError struct {
	Size   int64
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range not satisfiable: %s (size %d)", e.Reason, e.Size)
}

// Is lets errors.Is(err, ErrRangeNotSatisfiable) match RangeError values.
func (e *RangeError) Is(target error) bool {
	return target == ErrRangeNotSatisfiable
}
