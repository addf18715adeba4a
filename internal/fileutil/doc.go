// Package fileutil provides small filesystem helpers.
//
// EnsureDir creates directories recursively; EnsureDirForFile prepares a
// file's parent directory. These are used when materializing per-environment
// cache directories and their metadata stores on first use.
package fileutil
