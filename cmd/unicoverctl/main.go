// Command unicoverctl manages tests and courses over the REST API.
package main

import (
	"os"

	"github.com/unicover/unicover-lms/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
