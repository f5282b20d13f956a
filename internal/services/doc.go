// Package services defines the closed error taxonomy shared by the engine's
// components.
//
// Callers classify failures with errors.Is against the exported sentinels;
// Wrap tags an error with a sentinel plus component and operation context so
// the classification survives further wrapping.
package services
