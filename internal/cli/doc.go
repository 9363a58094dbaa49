// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates CLI flags and the optional configuration file into the
// application's settings and dispatches to the app's commands.
package cli
