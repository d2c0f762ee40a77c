// panelsync reconciles the local test-directory database with the PanelApp
// registry.
package main

import "github.com/eastglh/panelsync/cmd/panelsync/cmd"

// version is set by the build system.
var version = "dev"

func main() {
	cmd.Execute(version)
}
