// Package server holds the HTTP server configuration.
//
// While the start command handles the server startup, this package defines the
// configuration structure: the HTTP port and the API key that protects the
// merge API.
package server
