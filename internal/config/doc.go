// Package config loads and merges reviewr configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (REVIEWR_FORMAT, REVIEWR_FAIL_ON, etc.)
//  3. Config file ($XDG_CONFIG_HOME/reviewr/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config] and [SetField] to update a single
// key in the config file.
package config
