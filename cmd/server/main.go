// Command server runs the abcretail back office: the HTTP API, the order
// worker and the audit archiver, together or as separate processes.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
