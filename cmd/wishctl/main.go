// Command wishctl is the participant-side client for Well Wishers: sign in,
// decorate a friend's tree, leave a wish, and watch your own tree until
// Christmas.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", userMessage(err))
		os.Exit(1)
	}
}
