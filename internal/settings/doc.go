// Package settings loads the configuration shape consumed by the profile
// store: a default_environment fragment plus named profiles, in YAML, with
// ${VAR} environment-variable expansion in string values.
package settings
