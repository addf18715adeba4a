// Package cachedir maps backend base URLs to stable per-environment cache
// directories. Resolution is a pure function: the same normalized URL always
// yields the same path, including across process restarts, and two distinct
// URLs never share a path. Directory creation is left to the caller.
package cachedir
