// Package config defines the configuration for a racegate node.
//
// Whether racegate is started from the command line or embedded in Go code, it
// uses the Config object defined in this package. Values come from, in
// increasing order of precedence, the defaults below, a racegate.toml
// (.yaml and .json also work) in Config.DataDir, RACEGATE_* environment
// variables, and command line flags.
package config
