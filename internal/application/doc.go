// Package application provides application initialization and dependency wiring.
// It encapsulates the creation of the icon library, handlers, routers, and the
// HTTP server, keeping the main package focused on CLI parsing and orchestration.
package application
