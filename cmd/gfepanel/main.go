// Command gfepanel generates synthetic grouped panels for the GFE
// estimator, exports them and scores the estimator's assignments.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
