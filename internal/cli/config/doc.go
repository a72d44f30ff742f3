// Package config defines the remotectl CLI configuration.
//
//   - spec.go: CLIConfig, stored at ~/.remotectl/cli.yaml
//   - loader.go: layered loading (file, REMOTECTL_* env, flags), saving
//     and live reload
//
// A missing file is not an error; defaults apply.
package config
