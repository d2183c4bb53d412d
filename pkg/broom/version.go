// Package broom exposes module-level metadata.
package broom

// Version is the broom release version.
const Version = "0.1.0"
