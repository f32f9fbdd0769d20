// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package logging

import (
	"fmt"
	"strings"
)

// Prefix returns a L that prepends prefix to every message logged to l.
//
// It is used to tag per-connection messages with the client's address.
func Prefix(l L, prefix string) L {
	return &prefixLogger{
		base:      Must(l),
		prefix:    prefix,
		fmtPrefix: strings.ReplaceAll(prefix, "%", "%%"),
	}
}

type prefixLogger struct {
	base   L
	prefix string

	// fmtPrefix is prefix escaped for use in a format string. IPv6 zones
	// contain '%'.
	fmtPrefix string
}

func (pl *prefixLogger) Error(args ...interface{}) { pl.base.Error(pl.prefix + fmt.Sprint(args...)) }
func (pl *prefixLogger) Warn(args ...interface{})  { pl.base.Warn(pl.prefix + fmt.Sprint(args...)) }
func (pl *prefixLogger) Info(args ...interface{})  { pl.base.Info(pl.prefix + fmt.Sprint(args...)) }
func (pl *prefixLogger) Debug(args ...interface{}) { pl.base.Debug(pl.prefix + fmt.Sprint(args...)) }

func (pl *prefixLogger) Errorf(f string, args ...interface{}) { pl.base.Errorf(pl.fmtPrefix+f, args...) }
func (pl *prefixLogger) Warnf(f string, args ...interface{})  { pl.base.Warnf(pl.fmtPrefix+f, args...) }
func (pl *prefixLogger) Infof(f string, args ...interface{})  { pl.base.Infof(pl.fmtPrefix+f, args...) }
func (pl *prefixLogger) Debugf(f string, args ...interface{}) { pl.base.Debugf(pl.fmtPrefix+f, args...) }
