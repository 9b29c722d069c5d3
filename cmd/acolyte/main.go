package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/acolytehq/acolyte/internal/cli"
	"github.com/acolytehq/acolyte/internal/command"
)

func main() {
	if err := command.Execute(); err != nil {
		var exit *cli.ExitError
		if errors.As(err, &exit) {
			if exit.Err != nil {
				fmt.Fprintln(os.Stderr, exit.Err)
			}
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
