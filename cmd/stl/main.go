package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"golang.org/x/term"

	"github.com/wippyai/stl/config"
	"github.com/wippyai/stl/registry"
	"github.com/wippyai/stl/symbol"
	"github.com/wippyai/stl/wasmsym"
	"github.com/wippyai/stl/web"
)

var errUsage = errors.New("missing -wasm")

type options struct {
	wasmFile    string
	witFile     string
	configFile  string
	entry       string
	arg         int
	list        bool
	dump        bool
	interactive bool
}

func main() {
	var o options
	flag.StringVar(&o.wasmFile, "wasm", "", "Path to core wasm module")
	flag.StringVar(&o.witFile, "wit", "", "WIT file declaring which exports are entry points")
	flag.StringVar(&o.configFile, "config", "", "Config file (.hcl, .yaml, .yml)")
	flag.StringVar(&o.entry, "entry", "main", "Entry point to run as the first thread")
	flag.IntVar(&o.arg, "arg", 0, "Integer argument passed to the entry point")
	flag.BoolVar(&o.list, "list", false, "List entry points and exit")
	flag.BoolVar(&o.dump, "dump", false, "Print the slot tables as YAML after the entry point returns")
	flag.BoolVar(&o.interactive, "i", false, "Live monitor of the slot tables")
	flag.Parse()

	code, err := run(o, os.Stdout)
	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, "Usage: stl -wasm <file.wasm> [-wit file.wit] [-config stl.hcl] [-entry name] [-arg n]")
		fmt.Fprintln(os.Stderr, "       stl -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       stl -wasm <file.wasm> -i  (live monitor)")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(int(code))
}

func run(o options, stdout io.Writer, regOpts ...registry.Option) (symbol.ExitCode, error) {
	if o.wasmFile == "" {
		return 0, errUsage
	}

	cfg := config.Default()
	if o.configFile != "" {
		var err error
		if cfg, err = config.Load(o.configFile); err != nil {
			return 0, err
		}
	}

	if o.interactive && !term.IsTerminal(int(os.Stdout.Fd())) {
		return 0, fmt.Errorf("-i needs a terminal on stdout")
	}

	data, err := os.ReadFile(o.wasmFile)
	if err != nil {
		return 0, fmt.Errorf("read wasm: %w", err)
	}
	var witText string
	if o.witFile != "" {
		b, err := os.ReadFile(o.witFile)
		if err != nil {
			return 0, fmt.Errorf("read wit: %w", err)
		}
		witText = string(b)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg := registry.New(cfg.RegistryConfig(), regOpts...)
	defer reg.Close()
	context.AfterFunc(ctx, reg.Close)

	mod, err := wasmsym.Load(ctx, reg, data, wasmsym.Config{WIT: witText})
	if err != nil {
		return 0, err
	}
	defer mod.Close(context.Background())

	if o.list {
		fmt.Fprintf(stdout, "Entry points in %s:\n", o.wasmFile)
		for _, name := range reg.Symbols().Names() {
			fmt.Fprintf(stdout, "  %s\n", name)
		}
		return 0, nil
	}

	if cfg.Web != nil {
		srv := web.New(reg, cfg.Web.Callback)
		defer srv.Close()
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Web.Port); err != nil {
				reg.Log().Logf("%v", err)
			}
		}()
	}

	h := reg.CreateThread(o.entry, o.arg, false)

	var code symbol.ExitCode
	if o.interactive {
		code, err = runMonitor(reg, h, o.entry)
		if err != nil {
			return 0, err
		}
	} else {
		code = reg.Join(h)
	}

	if o.dump {
		out, err := reg.Snapshot().YAML()
		if err != nil {
			return 0, fmt.Errorf("dump: %w", err)
		}
		stdout.Write(out)
	}
	return code, nil
}
