package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/cli"

	"github.com/joeandaverde/pickaxe/serial"
)

type CopyCommand struct {
	Ui cli.Ui
}

func (c *CopyCommand) Help() string {
	helpText := `
Usage: pickaxe copy [options] <source> <destination>

  Copies source to destination one page at a time.

Options:

	-config=""	Configuration file
	-page-size=4096	Size of each read from the source
	-storage=os	Storage backend: os or mmap
`

	return strings.TrimSpace(helpText)
}

func (c *CopyCommand) Synopsis() string {
	return "Copies a file through a paged reader"
}

func (c *CopyCommand) Run(args []string) int {
	var flags commonFlags
	cmdFlags := flag.NewFlagSet("copy", flag.ContinueOnError)
	cmdFlags.Usage = func() { c.Ui.Output(c.Help()) }
	flags.register(cmdFlags)

	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}
	if cmdFlags.NArg() != 2 {
		c.Ui.Error("copy: expected a source and a destination")
		return 1
	}

	config, err := flags.resolve(cmdFlags)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	errs := &serial.ErrorSink{}
	err = c.copy(errs, config, cmdFlags.Arg(0), cmdFlags.Arg(1))
	return finish(c.Ui, errs, err)
}

func (c *CopyCommand) copy(errs *serial.ErrorSink, config *Config, src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	opts, err := config.options()
	if err != nil {
		return err
	}

	r, err := serial.Open(errs, src, config.PageSize, opts...)
	if err != nil {
		return err
	}
	defer r.Release()

	w, err := serial.Create(errs, dst, opts...)
	if err != nil {
		return err
	}
	defer w.Release()

	size := uint64(info.Size())
	chunk := make([]byte, config.PageSize)
	for remaining := size; remaining > 0; {
		n := min(remaining, config.PageSize)
		if err := r.Read(chunk[:n]); err != nil {
			return err
		}
		if err := w.Write(chunk[:n]); err != nil {
			return err
		}
		remaining -= n
	}

	if err := w.Flush(); err != nil {
		return err
	}

	c.Ui.Output(fmt.Sprintf("copied %s in %d pages", humanize.Bytes(w.Offset()), r.Stats().Pages))
	return nil
}
