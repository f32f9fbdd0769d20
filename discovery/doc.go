// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package discovery implements UDP broadcast announcement of a replay server.
//
// Profilers on the local network listen for broadcasts and list the servers
// that they hear from. An Announcer periodically broadcasts a server's
// presence, and announces its departure when stopped.
//
// Transmitter is the low-level primitive that encodes and sends a single
// broadcast.
package discovery
