// The appraisalctl binary is the platform's operational CLI.
package main

import (
	"os"

	"github.com/harkencre/appraisal-platform/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
