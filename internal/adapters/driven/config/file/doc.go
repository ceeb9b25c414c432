// Package file loads the harvester configuration from a TOML file.
//
// Every recognised key and its default is enumerated in domain.Config and
// domain.DefaultConfig; unknown keys are rejected. Target lists accept either
// a comma-separated string or a TOML array.
package file
