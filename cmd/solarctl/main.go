// solarctl is the command-line client for the solar-potential API.
package main

import (
	"os"

	"github.com/KlotzJesse/solar-potential/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
