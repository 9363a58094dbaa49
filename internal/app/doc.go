// Package app contains the core application logic. It wires the settings,
// logger, constructor schema, compiler session, backend and metrics of a
// run, decoupled from any specific entrypoint like a CLI.
package app
