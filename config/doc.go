// Package config loads and validates the settings of a coding run from
// flags, FILECODER_* environment variables and an optional config file.
package config
