package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"
)

func main() {
	os.Exit(run(os.Args[1:], &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}))
}

func run(args []string, ui cli.Ui) int {
	commands := map[string]cli.CommandFactory{
		"write": func() (cli.Command, error) {
			return &WriteCommand{Ui: ui}, nil
		},
		"dump": func() (cli.Command, error) {
			return &DumpCommand{Ui: ui}, nil
		},
		"copy": func() (cli.Command, error) {
			return &CopyCommand{Ui: ui}, nil
		},
	}

	pickaxeCLI := &cli.CLI{
		Name:     "pickaxe",
		Args:     args,
		Commands: commands,
		HelpFunc: cli.BasicHelpFunc("pickaxe"),
	}

	exitCode, err := pickaxeCLI.Run()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		return 1
	}

	return exitCode
}
