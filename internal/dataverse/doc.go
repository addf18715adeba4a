// Package dataverse implements the client constructed per pooled
// environment: an HTTP client bound to one backend base URL, carrying the
// environment's timeout and TLS policy, authenticated through a pluggable
// credential resolver, and owning the environment's on-disk metadata cache.
package dataverse
