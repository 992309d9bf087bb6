package main

import (
	"darkvm/internal/code"
	"darkvm/internal/lexer"
	"darkvm/internal/parser"
	"darkvm/internal/repl"
	"darkvm/internal/trace"
	"darkvm/internal/util"
	"darkvm/internal/vm"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const DefaultConfigFile = "darkvm.toml"

var (
	// Version is the current version of the darkvm binary loaded from the VERSION file in the root of the project.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	// logging
	logLevel string
	logFile  string
	// config vars
	configFile   string
	traceDB      string
	stepLimit    int
	debugProgram bool
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	// machine config
	flag.StringVar(&configFile, "config", DefaultConfigFile, "Path to a TOML config file")
	flag.StringVar(&traceDB, "trace-db", "", "Record executed instructions to a database (driver:dsn, driver is sqlite3 or mysql)")
	flag.IntVar(&stepLimit, "step-limit", 0, "Abort the run after this many instructions (0 = unlimited)")
	flag.BoolVar(&debugProgram, "debug-program", false, "Print the resolved instruction listing before running")
	// log config
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {

	flag.Parse()

	if version {
		printVersion()
		return
	}

	if help {
		printHelp()
		return
	}

	config := util.Configuration{
		Version:   Version,
		BuildDate: BuildDate,
		Commit:    Commit,
	}
	if err := util.LoadConfigFile(configFile, &config); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyFlags(&config)

	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(config.LogLevel),
	}
	logWriter := configureLogWriter(config.LogFile)
	defaultLogger := slog.New(slog.NewJSONHandler(logWriter, loggerOptions))
	slog.SetDefault(defaultLogger)

	if flag.NArg() == 0 {
		repl.Start(os.Stdin, os.Stdout)
		return
	}

	if err := runFile(flag.Arg(0), config); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// applyFlags overlays explicitly set command-line flags onto the file
// config, so flags always win.
func applyFlags(config *util.Configuration) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["log-level"] || config.LogLevel == "" {
		config.LogLevel = logLevel
	}
	if set["log-file"] {
		config.LogFile = logFile
	}
	if set["trace-db"] {
		config.TraceDB = traceDB
	}
	if set["step-limit"] {
		config.StepLimit = stepLimit
	}
	if set["debug-program"] {
		config.DebugProgram = debugProgram
	}
}

func runFile(path string, config util.Configuration) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read '%s': %w", path, err)
	}
	source := string(src)

	l := lexer.New(source)
	p := parser.New(l)
	program := p.ParseProgram()
	if len(p.Errors()) != 0 {
		for _, msg := range p.Errors() {
			fmt.Fprintln(os.Stderr, msg)
		}
		return fmt.Errorf("%d parser error(s) in '%s'", len(p.Errors()), path)
	}

	if config.DebugProgram {
		fmt.Fprint(os.Stderr, program.String())
	}

	machine := vm.New(program, &vm.WriterSink{Out: os.Stdout})
	machine.StepLimit = config.StepLimit

	var recorder *trace.Recorder
	if config.TraceDB != "" {
		recorder, err = trace.Open(config.TraceDB)
		if err != nil {
			return err
		}
		defer recorder.Close()
		if err := recorder.Begin(filepath.Base(path)); err != nil {
			return fmt.Errorf("failed to start trace run: %w", err)
		}
		machine.Hook = func(index int, ins *code.Instruction) {
			recorder.Step(index, string(ins.Op), ins.Position)
		}
	}

	runErr := execute(machine, program)

	if recorder != nil {
		if err := recorder.Finish(outcomeOf(runErr)); err != nil {
			slog.Warn("failed to finalize trace run", slog.Any("error", err))
		}
	}

	if runErr != nil {
		var vmErr *vm.Error
		if errors.As(runErr, &vmErr) {
			return fmt.Errorf("%s\n%s", vmErr, prettify(source, vmErr))
		}
		return runErr
	}
	return nil
}

// execute enters `@main` when the program declares it, the conventional
// entry point; otherwise execution simply starts at instruction 0.
func execute(machine *vm.VM, program *code.Program) error {
	var err error
	if _, ok := program.Labels["main"]; ok {
		_, err = machine.RunLabel("main")
	} else {
		_, err = machine.Run()
	}
	return err
}

func outcomeOf(err error) string {
	var vmErr *vm.Error
	switch {
	case err == nil:
		return "halted"
	case errors.As(err, &vmErr) && vmErr.Kind == vm.Aborted:
		return "aborted"
	default:
		return "faulted"
	}
}

func prettify(source string, vmErr *vm.Error) string {
	line, col := util.GetLineAndColumn(source, vmErr.Position)
	return util.GetContextLines(source, line, col, string(vmErr.Kind))
}

func configureLogWriter(logFile string) *os.File {
	var logWriter *os.File
	var err error
	if logFile != "" {
		// Create parent directories if they don't exist
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
			return os.Stderr
		}
		logWriter, err = os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
			logWriter = os.Stderr
		}
	} else {
		logWriter = os.Stderr
	}
	return logWriter
}

func printVersion() {

	fmt.Printf("darkvm version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: darkvm [options] [filename]

Options:
  -config <path>      Path to a TOML config file. Default is 'darkvm.toml'.
  -trace-db <spec>    Record executed instructions to a database (driver:dsn).
  -step-limit <n>     Abort the run after n instructions. Default is unlimited.
  -debug-program      Print the resolved instruction listing before running.
  -help               Display this help information and exit.
  -version            Display version information and exit.
  -log-level <level>  Set the log level: debug, info, warn, error. Default is 'error'.
  -log-file <path>    Specify a log file to write logs. Default is stderr.

Details:
This is the darkvm stack machine.

Examples:
  darkvm                          Start an interactive session
  darkvm program.dark             Execute the provided file
  darkvm -trace-db sqlite3:t.db program.dark
                                  Execute and record a step trace

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}

func logLevelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
