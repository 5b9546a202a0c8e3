package main

import (
	"os"

	"gitlab.com/timkado/api/openim-client/cmd/openim-client/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
