package main

import (
	"os"

	"github.com/goalconnect/backend/cmd/goalconnect/commands"
)

// main is the entry point for the GoalConnect CLI.
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
