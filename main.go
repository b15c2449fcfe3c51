package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	goIO "io"
	"os"
	"os/signal"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/aryanA101a/lulu/loader"
	"github.com/aryanA101a/lulu/terminal"
	"github.com/aryanA101a/lulu/translate"
	"github.com/aryanA101a/lulu/vm"
)

var f = translate.From

// exit codes
const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitInterrupt = 130
)

func main() {
	os.Exit(run())
}

// options are the parsed command line.
type options struct {
	debug       bool
	memoryTrace bool
	obj         bool
	dump        bool
	offset      vm.Word
	level       logrus.Level
	path        string
}

// parseArgs reads the command line. Usage text and flag errors go to output.
func parseArgs(name string, args []string, output goIO.Writer) (*options, error) {
	var opts options
	var offset uint
	var level string

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(output)
	flags.BoolVar(&opts.debug, "d", false, "Trace every instruction")
	flags.BoolVar(&opts.debug, "debug", false, "Trace every instruction")
	flags.BoolVar(&opts.memoryTrace, "m", false, "Trace every memory access")
	flags.BoolVar(&opts.memoryTrace, "memory-trace", false, "Trace every memory access")
	flags.BoolVar(&opts.obj, "obj", false, "Image starts with its origin word")
	flags.BoolVar(&opts.dump, "dump", false, "Dump occupied memory and registers around the run")
	flags.UintVar(&offset, "offset", 0, "Load offset added to the load address")
	flags.StringVar(&level, "log-level", "info", "Log level")

	flags.Usage = func() {
		fmt.Fprintln(output, f("Usage: %v [options] <image-file>", name))
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		// flag has already reported it
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	if flags.NArg() != 1 {
		flags.Usage()
		return nil, ErrUsage
	}
	opts.path = flags.Arg(0)

	if offset > vm.MemorySize-1 {
		return nil, &ErrOffset{Offset: offset}
	}
	opts.offset = vm.Word(offset)

	var err error
	opts.level, err = logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if opts.debug && opts.level < logrus.DebugLevel {
		opts.level = logrus.DebugLevel
	}
	if opts.memoryTrace {
		opts.level = logrus.TraceLevel
	}

	return &opts, nil
}

// loadedMessage reports where an image went. Counts are formatted outside the
// locale printer so they are never digit grouped.
func loadedMessage(path string, words int, origin vm.Word) string {
	return f("loaded image '%v' (%v words) at %v", path, strconv.Itoa(words), fmt.Sprintf("0x%04x", uint16(origin)))
}

// run does the work of main so that deferred cleanup, the terminal restore in
// particular, happens before the process exits.
func run() int {
	opts, err := parseArgs(os.Args[0], os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		if !errors.Is(err, ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		return exitUsage
	}

	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(opts.level)

	path := opts.path
	img, err := loader.Load(path, loader.Options{Offset: opts.offset, Obj: opts.obj})
	if err != nil {
		logrus.Error(err)
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	var console vm.Console
	if terminal.IsTerminal(os.Stdin) {
		tty, err := terminal.Open(ctx, os.Stdin, os.Stdout)
		if err != nil {
			logrus.WithError(err).Error("raw mode")
			return exitFailure
		}
		defer func() {
			if err := tty.Restore(); err != nil {
				logrus.WithError(err).Error("restore terminal")
			}
		}()
		console = tty
	} else {
		console = vm.NewStreamConsole(ctx, os.Stdin, os.Stdout)
	}

	machine := vm.New(console, vm.Config{
		Logger:      logrus.StandardLogger(),
		Debug:       opts.debug,
		MemoryTrace: opts.memoryTrace,
	})
	n := img.Into(machine)
	fmt.Fprintln(os.Stderr, loadedMessage(path, n, img.Origin))

	if opts.dump {
		fmt.Fprintln(os.Stderr, f("Occupied memory after program load:"))
		machine.DumpMemory(os.Stderr)
	}

	err = machine.Run(ctx)

	if opts.dump {
		fmt.Fprintln(os.Stderr, f("Occupied memory after program execution:"))
		machine.DumpMemory(os.Stderr)
		fmt.Fprintln(os.Stderr, f("Registers after program execution:"))
		machine.DumpRegisters(os.Stderr)
	}

	switch {
	case errors.Is(err, vm.ErrInterrupted):
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, f("caught interrupt, exiting"))
		return exitInterrupt
	case err != nil:
		logrus.Error(err)
		return exitFailure
	}

	stats := machine.Stats()
	logrus.WithFields(logrus.Fields{
		"instructions": stats.Instructions,
		"violations":   stats.Violations,
		"invalid":      stats.Invalid,
	}).Info("halted")

	return exitOK
}
