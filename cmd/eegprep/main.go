// Command eegprep runs an EEG preprocessing workflow.
//
// Usage:
//
//	eegprep [flags] [workflow]
//
// The default workflow is "pipeline": load, montage, band-pass, bad
// channels, ICA artifact removal, epoching and save. Settings come from
// built-in defaults, the -config file and EEGPREP_* environment variables.
//
// Examples:
//
//	eegprep
//	eegprep -config study.yaml pipeline
//	EEGPREP_INPUT_PATH=s02.edf eegprep psd
//	eegprep -list
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/cwbudde/algo-eeg/eeg/pipeline"
	"github.com/cwbudde/algo-eeg/internal/config"
	"github.com/cwbudde/algo-eeg/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "YAML configuration file")
	wait := flag.Bool("wait", false, "wait for Enter before exiting")
	list := flag.Bool("list", false, "list available workflows")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: eegprep [flags] [workflow]\n\n")
		fmt.Fprintf(os.Stderr, "Runs an EEG preprocessing workflow (default \"pipeline\").\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nWorkflows:\n")
		for _, n := range pipeline.Names() {
			fmt.Fprintf(os.Stderr, "  %s\n", n)
		}
	}
	flag.Parse()

	if *list {
		for _, n := range pipeline.Names() {
			fmt.Println(n)
		}
		return 0
	}
	if *wait {
		defer waitForEnter(os.Stdin, os.Stdout)
	}

	name := "pipeline"
	switch flag.NArg() {
	case 0:
	case 1:
		name = flag.Arg(0)
	default:
		flag.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	workflow, err := pipeline.Lookup(name)
	if err != nil {
		logger.Error("workflow", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("workflow started", "workflow", name, "input", cfg.Input.Path)
	res, err := workflow(ctx, cfg, logger)
	if err != nil {
		logger.Error("workflow failed", "workflow", name, "error", err)
		return 1
	}
	logger.Info("workflow finished", "workflow", name, "files", len(res.Files))
	return 0
}

// waitForEnter keeps the process alive until the operator acknowledges,
// so that output files can be inspected first.
func waitForEnter(in io.Reader, out io.Writer) {
	fmt.Fprint(out, "Press Enter to exit...")
	_, _ = bufio.NewReader(in).ReadString('\n')
}
