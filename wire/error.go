// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "fmt"

// MessageError describes an issue encountered while encoding or decoding a
// wire message. It is used to distinguish malformed-protocol errors (see
// spec §7) from other I/O failures.
type MessageError struct {
	Func        string
	Description string
}

// Error satisfies the error interface.
func (e *MessageError) Error() string {
	if e.Func != "" {
		return fmt.Sprintf("%s: %s", e.Func, e.Description)
	}
	return e.Description
}

func messageError(f, desc string) *MessageError {
	return &MessageError{Func: f, Description: desc}
}
