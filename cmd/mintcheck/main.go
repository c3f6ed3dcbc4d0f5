package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/wbrown/janus-plutus/contracts"
	"github.com/wbrown/janus-plutus/plutus"
	"github.com/wbrown/janus-plutus/plutus/annotations"
	"github.com/wbrown/janus-plutus/plutus/build"
	"github.com/wbrown/janus-plutus/plutus/eval"
	"github.com/wbrown/janus-plutus/plutus/ledger"
)

func main() {
	var templatePath string
	var policyHex string
	var nameHex string
	var mintingHex string
	var redeemer int64
	var wrongRedeemer int64
	var maxSteps int
	var verbose bool

	flag.StringVar(&templatePath, "template", "", "template source file (default: embedded minting policy)")
	flag.StringVar(&policyHex, "policy", "14b249936a64cbc96bde5a46e04174e7fb58b565103d0c3a32f8d61f", "NFT policy id (hex)")
	flag.StringVar(&nameHex, "name", "54657374546F6B656E", "NFT token name (hex)")
	flag.StringVar(&mintingHex, "minting", "14b249936a64cbc96bde5a46e04174e7fb58b565103d0c3a32f8d61e", "policy id in the minting purpose (hex)")
	flag.Int64Var(&redeemer, "redeemer", contracts.Redeemer, "redeemer the policy accepts")
	flag.Int64Var(&wrongRedeemer, "wrong-redeemer", contracts.Redeemer+1, "redeemer used by the wrong-redeemer scenario")
	flag.IntVar(&maxSteps, "max-steps", eval.DefaultOptions().MaxSteps, "evaluation step limit (0 for unlimited)")
	flag.BoolVar(&verbose, "verbose", false, "show traces and failure call sites")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Runs the NFT scenario catalogue against the minting policy and\n")
		fmt.Fprintf(os.Stderr, "reports expected against actual outcomes.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	source := contracts.MintValidator
	if templatePath != "" {
		data, err := os.ReadFile(templatePath)
		if err != nil {
			fail(fmt.Errorf("reading template: %w", err))
		}
		source = string(data)
	}

	params, err := build.NFTParams(policyHex, nameHex)
	if err != nil {
		fail(err)
	}
	minting, err := plutus.BytesFromHex(mintingHex)
	if err != nil {
		fail(fmt.Errorf("minting policy: %w", err))
	}

	res, err := build.Build(build.Request{Source: source, Params: params}, build.DefaultOptions())
	if err != nil {
		fail(err)
	}

	scenarios := ledger.NFTScenarios(ledger.NFTScenarioConfig{
		NFTPolicy:     params[0].Value.(plutus.Bytes),
		NFTName:       params[1].Value.(plutus.Bytes),
		MintingPolicy: minting,
		Redeemer:      plutus.NewInt(redeemer),
		WrongRedeemer: plutus.NewInt(wrongRedeemer),
	})

	opts := eval.Options{MaxSteps: maxSteps}
	if verbose {
		formatter := annotations.NewOutputFormatter(os.Stderr)
		opts.Collector = annotations.NewCollector(formatter.Handle)
	}
	evaluator := eval.New(opts)
	formatter := eval.NewTableFormatter()

	outcomes := evaluator.RunScenarios(res.Program, scenarios)
	fmt.Print(formatter.FormatOutcomes(outcomes))

	mismatches := 0
	for _, o := range outcomes {
		if !o.Matches() {
			mismatches++
		}
		var f *eval.Failure
		if verbose && errors.As(o.Err, &f) && len(f.CallSites) > 0 {
			fmt.Printf("\n%s\n%s", o.Scenario.Name, formatter.FormatCallSites(f.CallSites))
		}
	}

	if mismatches > 0 {
		fail(fmt.Errorf("%d of %d scenarios did not match", mismatches, len(outcomes)))
	}
	fmt.Println(color.GreenString("\nall %d scenarios matched", len(outcomes)))
}

// fail reports err on stderr and exits with status 1
func fail(err error) {
	fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
	os.Exit(1)
}
