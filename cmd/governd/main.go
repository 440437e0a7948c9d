// Command governd hosts the governance kernel's actors and exposes an
// operator CLI for minting, installing voting policy, and proposing, voting
// on, and executing governance actions.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
