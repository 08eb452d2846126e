// Package main provides the entry point for the git-anger-management CLI,
// usually invoked by git as "git anger-management".
package main

import (
	"fmt"
	"os"

	"github.com/sondr3/git-anger-management/cmd/git-anger-management/commands"
	"github.com/sondr3/git-anger-management/pkg/version"
)

func main() {
	version.Init()

	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
