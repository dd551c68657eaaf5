// Command rf4cetools bundles the RF4CE pairing-key recovery, traffic
// sniffing, and packet injection tools behind a single CLI front end.
package main

import (
	"os"

	"github.com/oakfieldlabs/rf4cetools/cmd/rf4cetools/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
