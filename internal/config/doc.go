// Package config loads, validates, and normalizes Grimoire's TOML
// configuration.
//
// Configuration is an immutable snapshot: Load produces a fully resolved
// Config once at startup and components receive it (or the fields they need)
// at construction. Nothing mutates it afterwards.
package config
