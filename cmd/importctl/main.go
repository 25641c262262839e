// Command importctl parses shipment spreadsheets and runs previews and
// commits from the command line against the configured database.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
