// Package main provides the reglet-ext CLI, a demonstration front end for
// the extension loader: it lists, describes, and activates the bundled
// example capabilities without requiring a host application.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
