// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import "github.com/decred/slog"

var log = slog.Disabled

// UseLogger sets the package-wide logger used by every Peer.
func UseLogger(logger slog.Logger) {
	log = logger
}
