package main

import (
	"os"

	"github.com/pterm/pterm"

	"fungible-token-demo/internal/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch app.KindOf(err) {
	case app.KindValidation:
		return 2
	case app.KindSession:
		return 3
	case app.KindRemote:
		return 4
	default:
		return 1
	}
}
