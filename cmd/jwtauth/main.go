// Package main is the entry point for the jwtauth CLI.
package main

import (
	"os"

	"github.com/MrEthical07/jwtauth/cmd/jwtauth/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
