package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/cli"

	"github.com/joeandaverde/pickaxe/serial"
)

type DumpCommand struct {
	Ui cli.Ui
}

func (c *DumpCommand) Help() string {
	helpText := `
Usage: pickaxe dump [options] <file>

  Reads fixed size binary values from file until the end of the data and
  prints the offset and value of each.

Options:

	-config=""	Configuration file
	-type=u32	Value type: u8, u16, u32, u64, i8, i16, i32, i64, f32, f64
	-align=0	Alignment in bytes, 0 to use the type's own alignment
	-page-size=4096	Size of each read from the file
	-storage=os	Storage backend: os or mmap
`

	return strings.TrimSpace(helpText)
}

func (c *DumpCommand) Synopsis() string {
	return "Prints the binary values stored in a file"
}

func (c *DumpCommand) Run(args []string) int {
	var flags commonFlags
	cmdFlags := flag.NewFlagSet("dump", flag.ContinueOnError)
	cmdFlags.Usage = func() { c.Ui.Output(c.Help()) }
	flags.register(cmdFlags)

	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}
	if cmdFlags.NArg() != 1 {
		c.Ui.Error("dump: expected a single file name")
		return 1
	}

	config, err := flags.resolve(cmdFlags)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	errs := &serial.ErrorSink{}
	err = c.dump(errs, config, cmdFlags.Arg(0))
	return finish(c.Ui, errs, err)
}

func (c *DumpCommand) dump(errs *serial.ErrorSink, config *Config, path string) error {
	vt, err := lookupType(config.Type)
	if err != nil {
		return err
	}

	opts, err := config.options()
	if err != nil {
		return err
	}

	r, err := serial.Open(errs, path, config.PageSize, opts...)
	if err != nil {
		return err
	}
	defer r.Release()

	count := 0
	for {
		offset, text, err := vt.get(r, config.Alignment)
		if errors.Is(err, serial.ErrShortPage) && r.EOF() {
			break
		}
		if err != nil {
			return err
		}

		c.Ui.Output(fmt.Sprintf("%08x  %s", offset, text))
		count++
	}

	stats := r.Stats()
	c.Ui.Info(fmt.Sprintf("%d values, %s in %d pages", count, humanize.Bytes(stats.Bytes), stats.Pages))
	return nil
}
