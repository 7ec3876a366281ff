package log

// Package log provides a small wrapper around the Go standard library logger
// used by every qas component. It adds:
//
//   - Named component loggers via ForComponent(name)
//   - Automatic message prefix: "[<name>]"
//   - Warn and Debug levels (Info is the default level, Error is also provided)
//   - Ability to enable debug globally or selectively per component
//
// Usage:
//
//	l := log.ForComponent("api")
//	l.Infof("listening on %s", addr)
//	l.Warnf("publish token not configured")
//	l.Debugf("raw response: %s", body) // only prints if debug enabled
//
// Tests can redirect output by calling SetOutput with a bytes.Buffer and
// assert on log contents.
//
// NOTE: The package name intentionally collides with stdlib "log". When
// importing this package alongside the standard library, alias one of them.
