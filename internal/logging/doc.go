// Package logging constructs the process-wide slog logger and provides the
// attribute helpers and standardized field names used across components.
//
// Components never log through the default logger; they receive a
// *slog.Logger at construction and wrap it with NewComponentLogger so every
// record carries a component attribute. The console handler hoists that
// attribute in front of the message for readable terminal output; the JSON
// handler keeps it as a regular field.
package logging
