package main

import (
	"context"
	"os"

	"github.com/vsinha/drumsched/pkg/interfaces/cli/commands"
)

func main() {
	if err := commands.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
