package main

import (
	"fmt"
	"os"

	"kanban-board-api/cmd/boardctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
