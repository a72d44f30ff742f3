// Package confloader loads layered configuration and watches config files.
//
// Sources are merged with koanf in increasing priority:
//
//  1. Default values (already present in the target struct)
//  2. Configuration file (YAML)
//  3. Environment variables (REMOTECTL_SECTION_KEY)
//  4. Command-line flags, loaded as a map
//
// Watcher reports writes to watched files so that settings such as the log
// level and the keymap can be reapplied without a restart.
package confloader
