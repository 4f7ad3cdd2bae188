// Package logging provides a simple leveled logging interface for the
// backend.
//
// The log level is configured via the LOG_LEVEL environment variable
// (debug, info, warn, error); DEBUG=1 forces debug output.
package logging
