// Copyright 2018 MPI-SWS and Valentin Wuestholz

// This file is part of Bran.
//
// Bran is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Bran is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Bran.  If not, see <https://www.gnu.org/licenses/>.

// jumpdest verifies jump destination witnesses against EVM bytecode.
package main

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/hashicorp/go-multierror"
	"github.com/holiman/uint256"
	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/practical-formal-methods/jumpdest/analysis"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	codeFlag = &cli.StringFlag{
		Name:     "code",
		Usage:    "Hex-encoded bytecode",
		Required: true,
	}
	witnessFlag = &cli.StringFlag{
		Name:     "witness",
		Usage:    "JSON file holding the witness entries",
		Required: true,
	}
	outFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "File the batch report is written to",
		Value: "report.json",
	}
)

var (
	scanCommand = &cli.Command{
		Name:      "scan",
		Usage:     "Lists the valid jump destinations of some bytecode",
		ArgsUsage: "<hex>",
		Action:    scanCmd,
	}
	verifyCommand = &cli.Command{
		Name:   "verify",
		Usage:  "Verifies a witness against bytecode",
		Flags:  []cli.Flag{codeFlag, witnessFlag},
		Action: verifyCmd,
	}
	queryCommand = &cli.Command{
		Name:      "query",
		Usage:     "Checks positions against the verified jump destinations",
		ArgsUsage: "<pos> [<pos>...]",
		Flags:     []cli.Flag{codeFlag},
		Action:    queryCmd,
	}
	batchCommand = &cli.Command{
		Name:      "batch",
		Usage:     "Verifies every contract of a JSON file and writes a report",
		ArgsUsage: "<contracts.json>",
		Flags:     []cli.Flag{outFlag},
		Action:    batchCmd,
	}
)

var app = &cli.App{
	Name:  "jumpdest",
	Usage: "verified EVM jump destination analysis",
	Flags: []cli.Flag{configFileFlag, verbosityFlag, cacheFlag},
	Commands: []*cli.Command{
		scanCommand,
		verifyCommand,
		queryCommand,
		batchCommand,
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseCode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	code, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode: %w", err)
	}
	return code, nil
}

// parsePosition accepts decimal or 0x-prefixed positions of up to 256 bits.
func parsePosition(s string) (*uint256.Int, error) {
	b, ok := new(big.Int).SetString(s, 0)
	if !ok || b.Sign() < 0 {
		return nil, fmt.Errorf("invalid position %q", s)
	}
	pos, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("position %q exceeds 256 bits", s)
	}
	return pos, nil
}

func readWitness(file string) (analysis.Witness, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var w analysis.Witness
	if err := json.NewDecoder(f).Decode(&w); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return w, nil
}

func scanCmd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected one hex argument, got %d", ctx.NArg())
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log)
	code, err := parseCode(ctx.Args().First())
	if err != nil {
		return err
	}
	for _, pc := range analysis.Scan(code) {
		fmt.Fprintln(ctx.App.Writer, pc)
	}
	return nil
}

func verifyCmd(ctx *cli.Context) error {
	a, err := makeAnalyzer(ctx)
	if err != nil {
		return err
	}
	code, err := parseCode(ctx.String(codeFlag.Name))
	if err != nil {
		return err
	}
	w, err := readWitness(ctx.String(witnessFlag.Name))
	if err != nil {
		return err
	}
	dict, err := a.Verify(code, w)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Fprintf(ctx.App.Writer, "valid witness: %d jump destinations, digest %s\n", dict.Len(), dict.Digest().Hex())
	return nil
}

func queryCmd(ctx *cli.Context) error {
	a, err := makeAnalyzer(ctx)
	if err != nil {
		return err
	}
	code, err := parseCode(ctx.String(codeFlag.Name))
	if err != nil {
		return err
	}
	dict, err := a.Analyze(code)
	if err != nil {
		return err
	}
	for _, arg := range ctx.Args().Slice() {
		pos, err := parsePosition(arg)
		if err != nil {
			return err
		}
		valid, err := dict.IsValidWord(pos)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Fprintf(ctx.App.Writer, "%s: %t\n", arg, valid)
	}
	return nil
}

// contractMsg is one entry of a batch file. A contract without a witness is
// checked against the witness derived from scanning its own code.
type contractMsg struct {
	Code    hexutil.Bytes
	Witness analysis.Witness
}

var (
	errMissingContract  = errors.New("missing contract")
	missingContractFail = "missing-contract"
)

type reportMsg struct {
	Valid  bool
	Size   int
	Digest *common.Hash `json:",omitempty"`
	Cause  string       `json:",omitempty"`
}

func readContracts(file string) (map[string]*contractMsg, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var contracts map[string]*contractMsg
	if err := json.NewDecoder(f).Decode(&contracts); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return contracts, nil
}

func writeReport(file string, report map[string]*reportMsg) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// runBatch verifies every contract and collects one report line per contract.
// Rejections are accumulated rather than stopping the batch.
func runBatch(a *analysis.JumpdestAnalyzer, contracts map[string]*contractMsg) (map[string]*reportMsg, error) {
	var result *multierror.Error
	report := make(map[string]*reportMsg, len(contracts))

	names := maps.Keys(contracts)
	slices.Sort(names)
	for _, name := range names {
		msg := contracts[name]
		var (
			dict  *analysis.Dictionary
			err   error
			cause string
		)
		switch {
		case msg == nil:
			err, cause = errMissingContract, missingContractFail
		case msg.Witness == nil:
			dict, err = a.Analyze(msg.Code)
		default:
			dict, err = a.Verify(msg.Code, msg.Witness)
		}
		if err != nil {
			if cause == "" {
				cause = analysis.FailureCause(err)
			}
			log.Info("Contract rejected", "name", name, "err", err)
			report[name] = &reportMsg{Cause: cause}
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
			continue
		}
		digest := dict.Digest()
		log.Info("Contract verified", "name", name, "size", dict.Len(), "digest", digest)
		report[name] = &reportMsg{Valid: true, Size: dict.Len(), Digest: &digest}
	}
	return report, result.ErrorOrNil()
}

func batchCmd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected one contracts file, got %d arguments", ctx.NArg())
	}
	a, err := makeAnalyzer(ctx)
	if err != nil {
		return err
	}
	contracts, err := readContracts(ctx.Args().First())
	if err != nil {
		return err
	}
	report, batchErr := runBatch(a, contracts)
	if err := writeReport(ctx.String(outFlag.Name), report); err != nil {
		return err
	}
	log.Info("Batch finished", "verified", a.NumSuccess(), "rejected", a.NumFail(), "elapsed", common.PrettyDuration(a.Time()))
	if batchErr != nil {
		return cli.Exit(batchErr.Error(), 1)
	}
	return nil
}
