// Package sentinel provides a const-declarable error type for sentinel errors.
//
// Sentinel errors built with errors.New live in package-level vars that can be
// reassigned. Error is a string-based alternative that can be declared const,
// while remaining compatible with errors.Is through wrapped chains.
package sentinel
