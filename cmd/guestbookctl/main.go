package main

import (
	"fmt"
	"os"

	"github.com/nurlyy/guestbook/internal/cli"
)

func main() {
	env, err := cli.NewEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %s\n", err)
		os.Exit(1)
	}

	if err := cli.NewRootCmd(env).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
