package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/wbrown/janus-plutus/contracts"
	"github.com/wbrown/janus-plutus/plutus/annotations"
	"github.com/wbrown/janus-plutus/plutus/build"
	"github.com/wbrown/janus-plutus/plutus/eval"
	"github.com/wbrown/janus-plutus/plutus/storage"
	"github.com/wbrown/janus-plutus/plutus/template"
)

func main() {
	var templatePath string
	var description string
	var dbPath string
	var verbose bool
	var showParams bool
	var help bool

	flag.StringVar(&templatePath, "template", "", "template source file (default: embedded minting policy)")
	flag.StringVar(&description, "description", "", "artifact description")
	flag.StringVar(&dbPath, "db", "", "artifact database path (artifacts are not stored when empty)")
	flag.BoolVar(&verbose, "verbose", false, "verbose mode (show build annotations on stderr)")
	flag.BoolVar(&showParams, "params", false, "print the template parameters and exit")
	flag.BoolVar(&help, "h", false, "show help")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <NFT_POLICY_ID> <NFT_NAME_HEX>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Binds an NFT policy id and token name into the minting policy template\n")
		fmt.Fprintf(os.Stderr, "and prints the script artifact JSON.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s 14b2...d61f 54657374546F6B656E              # Print artifact\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -db artifacts.db 14b2...d61f 5465...      # Also record it\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -params                                   # Show parameters\n", os.Args[0])
	}
	flag.Parse()

	if help {
		flag.Usage()
		os.Exit(0)
	}

	source := contracts.MintValidator
	if templatePath != "" {
		data, err := os.ReadFile(templatePath)
		if err != nil {
			fail(fmt.Errorf("reading template: %w", err))
		}
		source = string(data)
	}

	if showParams {
		if err := printParams(source); err != nil {
			fail(err)
		}
		return
	}

	err := run(os.Stdout, flag.Args(), source, description, dbPath, verbose)
	if errors.Is(err, errUsage) {
		flag.Usage()
	}
	if err != nil {
		fail(err)
	}
}

// errUsage marks invocation errors that should be followed by the usage text
var errUsage = errors.New("usage")

// argNames are the positional arguments in order
var argNames = []string{"NFT_POLICY_ID", "NFT_NAME_HEX"}

func run(w io.Writer, args []string, source, description, dbPath string, verbose bool) error {
	if len(args) < len(argNames) {
		return fmt.Errorf("%w: missing %s", errUsage, strings.Join(argNames[len(args):], ", "))
	}
	if len(args) > len(argNames) {
		return fmt.Errorf("%w: expected %d arguments, got %d", errUsage, len(argNames), len(args))
	}

	params, err := build.NFTParams(args[0], args[1])
	if err != nil {
		return err
	}

	opts := build.DefaultOptions()
	opts.Description = description
	if verbose {
		formatter := annotations.NewOutputFormatter(os.Stderr)
		opts.Collector = annotations.NewCollector(formatter.Handle)
	}
	if dbPath != "" {
		store, err := storage.Open(storage.Options{Path: dbPath})
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Store = store
	}

	res, err := build.Build(build.Request{Source: source, Params: params}, opts)
	if err != nil {
		return err
	}
	return res.Artifact.WriteJSON(w)
}

func printParams(source string) error {
	tmpl, err := template.Compile(source)
	if err != nil {
		return err
	}
	rows := make([][]string, len(tmpl.Params))
	for i, p := range tmpl.Params {
		rows[i] = []string{tmpl.QualifiedName(p.Name), p.Type.String(), p.Pos.String()}
	}
	fmt.Print(eval.NewTableFormatter().FormatTable([]string{"parameter", "type", "declared"}, rows))
	return nil
}

// fail reports err on stderr and exits with status 1
func fail(err error) {
	fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
	os.Exit(1)
}
