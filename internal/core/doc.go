// Package core implements the connection manager behind the public dvenv API.
// It contains the profile Store (named environment fragments with default
// fallback), the Resolver (fragment merge producing one immutable effective
// configuration per environment), the Pool (at-most-one client construction
// per profile identity under concurrent acquisition), and the connection
// probe (best-effort liveness reporting that never propagates transport
// errors).
package core
