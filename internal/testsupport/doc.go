// Package testsupport provides shared fixtures for tests: temp-dir configs,
// catalog stores with automatic cleanup, and deterministic row builders.
package testsupport
