// Package file provides file-based implementations of driven port interfaces.
//
// ConfigStore reads and writes a TOML or YAML settings file with nested
// sections flattened to dot-notation keys. SERCHA_* environment variables,
// including those loaded from a .env file, overlay the file without being
// persisted.
package file
