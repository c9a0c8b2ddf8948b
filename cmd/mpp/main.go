// mpp runs M++ programs: a line-oriented stack machine with linear
// memory, typed variables and label-based control flow.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/tebeka/atexit"

	"github.com/mpplang/mpp/pkg/config"
	"github.com/mpplang/mpp/pkg/interpreter"
	"github.com/mpplang/mpp/pkg/program"
)

type options struct {
	config   string
	debug    bool
	gas      int
	seed     int64
	snapshot string
	disasm   bool
	inspect  string
}

func main() {
	atexit.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run parses args, executes one program and returns the process exit code
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("mpp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.config, "config", "", "Path to mpp.toml (default: next to the program)")
	fs.BoolVar(&opts.debug, "debug", false, "Trace every instruction")
	fs.IntVar(&opts.gas, "gas", -1, "Step limit (0 = unlimited, -1 = from config)")
	fs.Int64Var(&opts.seed, "seed", 0, "Random seed (0 = from config, else time-based)")
	fs.StringVar(&opts.snapshot, "snapshot", "", "Write a CBOR state snapshot to this file on exit")
	fs.BoolVar(&opts.disasm, "disasm", false, "List the loaded program instead of running it")
	fs.StringVar(&opts.inspect, "inspect", "", "Print a snapshot written by -snapshot and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: mpp [flags] program.m++\n       mpp -inspect snapshot.cbor\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if opts.inspect != "" {
		if err := inspect(opts.inspect, stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}

	if err := runFile(fs.Arg(0), opts, stdin, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(programPath string, opts options) (*config.Config, error) {
	if opts.config != "" {
		return config.Load(opts.config)
	}
	return config.ForProgram(programPath)
}

func runFile(path string, opts options, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(path, opts)
	if err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(cfg.Handler(stderr, level))

	prog, err := program.LoadFile(path)
	if err != nil {
		return err
	}

	if opts.disasm {
		fmt.Fprint(stdout, prog.Disassemble())
		return nil
	}

	interp := interpreter.New(prog)
	interp.Output = stdout
	interp.SetInput(stdin)
	interp.Logger = logger
	interp.Debug = level <= slog.LevelDebug
	interp.Prompt = cfg.Run.Prompt
	interp.Color = interpreter.ColorCode(cfg.Output.Color)

	gas := cfg.Run.Gas
	if opts.gas >= 0 {
		gas = opts.gas
	}
	interp.SetGas(gas)

	seed := cfg.Run.Seed
	if opts.seed != 0 {
		seed = opts.seed
	}
	if seed != 0 {
		interp.Seed(seed)
	}

	if opts.snapshot != "" {
		defer func() {
			if err := writeSnapshot(interp, opts.snapshot); err != nil {
				logger.Error("snapshot", "path", opts.snapshot, "err", err)
			}
		}()
	}

	logger.Debug("loaded", "program", path, "lines", prog.Len(), "labels", len(prog.Labels), "config", cfg.Path)
	return interp.Run()
}

func writeSnapshot(interp *interpreter.Interpreter, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := interp.WriteSnapshot(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// inspect prints a saved snapshot in a readable form
func inspect(path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	snap, err := interpreter.UnmarshalSnapshot(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "program: %s\n", snap.Program)
	fmt.Fprintf(w, "pc: %d  steps: %d  running: %t\n", snap.PC, snap.Steps, snap.Running)

	fmt.Fprint(w, "stack: [")
	for _, v := range snap.Stack {
		fmt.Fprintf(w, " %s", v.Value())
	}
	fmt.Fprintln(w, " ]")

	names := make([]string, 0, len(snap.Variables))
	for name := range snap.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := snap.Variables[name].Value()
		fmt.Fprintf(w, "var %s = %s (%s)\n", name, v, v.Type())
	}

	for _, addr := range snap.Cells() {
		fmt.Fprintf(w, "mem[%d] = %d\n", addr, snap.Memory[addr])
	}
	for _, f := range snap.Faults {
		fmt.Fprintf(w, "fault: %s\n", f)
	}
	return nil
}
