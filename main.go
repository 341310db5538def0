package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/antibyte/minilang/pkg/configuration"
	"github.com/antibyte/minilang/pkg/history"
	"github.com/antibyte/minilang/pkg/lexer"
	"github.com/antibyte/minilang/pkg/logger"
	"github.com/antibyte/minilang/pkg/output"
	"github.com/antibyte/minilang/pkg/server"
	tlsmanager "github.com/antibyte/minilang/pkg/tls"
)

// Exit codes.
const (
	exitOK       = 0
	exitIO       = 1
	exitLexError = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("minilang", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "settings.cfg", "path to the settings file")
	noOut := flags.Bool("no-out", false, "do not write .out files next to the sources")
	useHistory := flags.Bool("history", false, "record every run in the history database")
	serve := flags.Bool("serve", false, "start the scan server")
	addr := flags.String("addr", "", "listen address of the scan server (default [Server] addr)")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: minilang [flags] <file.mlng>...\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return exitIO
	}

	if err := configuration.Initialize(*configPath); err != nil {
		fmt.Fprintf(stderr, "Error initializing configuration: %v\n", err)
		return exitIO
	}
	if err := logger.Initialize(); err != nil {
		fmt.Fprintf(stderr, "Error initializing logger: %v\n", err)
		return exitIO
	}
	defer logger.Close()
	logger.ConfigInfo("Configuration loaded from: %s", *configPath)

	files := flags.Args()
	if len(files) == 0 && !*serve {
		flags.Usage()
		return exitIO
	}

	var store *history.Store
	if *useHistory || configuration.GetBool("History", "enabled", false) {
		db, err := history.InitDB(configuration.GetString("History", "db_path", "minilang.db"))
		if err != nil {
			fmt.Fprintf(stderr, "Error opening history: %v\n", err)
			return exitIO
		}
		defer db.Close()
		if err := history.CreateTables(db); err != nil {
			fmt.Fprintf(stderr, "Error preparing history: %v\n", err)
			return exitIO
		}
		store = history.NewStore(db)
	}

	status := exitOK
	for _, path := range files {
		code := scanFile(path, len(files) > 1, !*noOut, store, stdout, stderr)
		if code == exitIO || (code == exitLexError && status == exitOK) {
			status = code
		}
	}

	if *serve {
		if err := serveScans(*addr, store); err != nil {
			fmt.Fprintf(stderr, "Server error: %v\n", err)
			return exitIO
		}
	}
	return status
}

func scanFile(path string, header, writeOut bool, store *history.Store, stdout, stderr io.Writer) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading %s: %v\n", path, err)
		return exitIO
	}

	source := string(data)
	tokens, errs := lexer.Analyze(source)
	if configuration.GetBool("Lexer", "log_tokens", false) {
		for _, tok := range tokens {
			logger.Debug(logger.AreaLexer, "%s: %s", path, tok)
		}
	}

	if header {
		fmt.Fprintf(stdout, "== %s ==\n", path)
	}
	output.WriteTokens(stdout, tokens)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout)
	output.WriteErrors(stdout, errs)
	fmt.Fprintln(stdout)

	code := exitOK
	if writeOut && configuration.GetBool("Output", "write_out_file", true) {
		outPath, err := output.WriteOutFile(path, tokens)
		if err != nil {
			fmt.Fprintf(stderr, "Error writing tokens: %v\n", err)
			code = exitIO
		} else {
			fmt.Fprintf(stdout, "Tokens written to %s\n", outPath)
		}
	}

	if store != nil {
		if _, err := store.Record(context.Background(), path, source, tokens, errs); err != nil {
			fmt.Fprintf(stderr, "Error recording run: %v\n", err)
			code = exitIO
		}
	}

	if code == exitOK && len(errs) > 0 {
		code = exitLexError
	}
	return code
}

func serveScans(addr string, store *history.Store) error {
	if addr == "" {
		addr = configuration.GetString("Server", "addr", ":8080")
	}

	manager, err := tlsmanager.NewTLSManager()
	if err != nil {
		return err
	}
	var tlsSource server.TLSSource
	if manager.IsEnabled() {
		tlsSource = manager
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(store, server.OptionsFromConfig()).ListenAndServe(ctx, addr, tlsSource)
}
