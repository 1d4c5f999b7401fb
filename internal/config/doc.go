// Package config provides configuration structures and utilities for proxysort.
// It defines the scan, resolver, attachment fetching and report settings, and
// loads them from defaults, a YAML configuration file, the environment and
// finally command-line flags, in increasing order of precedence.
package config
