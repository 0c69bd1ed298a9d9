package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/cli"

	"github.com/joeandaverde/pickaxe/serial"
)

type WriteCommand struct {
	Ui cli.Ui
}

func (c *WriteCommand) Help() string {
	helpText := `
Usage: pickaxe write [options] <file> <value>...

  Writes each value to file as a fixed size binary value, padded with zero
  bytes so every value starts at a multiple of the alignment.

Options:

	-config=""	Configuration file
	-type=u32	Value type: u8, u16, u32, u64, i8, i16, i32, i64, f32, f64
	-align=0	Alignment in bytes, 0 to use the type's own alignment
`

	return strings.TrimSpace(helpText)
}

func (c *WriteCommand) Synopsis() string {
	return "Writes aligned binary values to a file"
}

func (c *WriteCommand) Run(args []string) int {
	var flags commonFlags
	cmdFlags := flag.NewFlagSet("write", flag.ContinueOnError)
	cmdFlags.Usage = func() { c.Ui.Output(c.Help()) }
	flags.register(cmdFlags)

	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}
	if cmdFlags.NArg() < 1 {
		c.Ui.Error("write: expected a file name")
		return 1
	}

	config, err := flags.resolve(cmdFlags)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	errs := &serial.ErrorSink{}
	err = c.write(errs, config, cmdFlags.Arg(0), cmdFlags.Args()[1:])
	return finish(c.Ui, errs, err)
}

func (c *WriteCommand) write(errs *serial.ErrorSink, config *Config, path string, values []string) error {
	vt, err := lookupType(config.Type)
	if err != nil {
		return err
	}

	opts, err := config.options()
	if err != nil {
		return err
	}

	w, err := serial.Create(errs, path, opts...)
	if err != nil {
		return err
	}
	defer w.Release()

	for _, text := range values {
		if err := vt.put(w, text, config.Alignment); err != nil {
			return fmt.Errorf("writing %q: %w", text, err)
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}

	c.Ui.Output(fmt.Sprintf("wrote %d values, %s", len(values), humanize.Bytes(w.Offset())))
	return nil
}

// finish reports err and any release failures collected in errs, and
// returns the exit code.
func finish(ui cli.Ui, errs *serial.ErrorSink, err error) int {
	code := 0
	if err != nil {
		ui.Error(err.Error())
		code = 1
	}

	for _, closeErr := range errs.Errors() {
		ui.Error(closeErr.Error())
		code = 1
	}
	errs.Clear()

	return code
}
