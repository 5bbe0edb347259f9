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

package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/practical-formal-methods/jumpdest/analysis"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	cacheFlag = &cli.IntFlag{
		Name:  "cache",
		Usage: "Number of verified dictionaries kept in memory",
		Value: analysis.DefaultConfig.CacheSize,
	}
)

type logConfig struct {
	Verbosity int
}

type jumpdestConfig struct {
	Analyzer analysis.Config
	Log      logConfig
}

func defaultConfig() jumpdestConfig {
	return jumpdestConfig{
		Analyzer: analysis.DefaultConfig,
		Log:      logConfig{Verbosity: 3},
	}
}

// loadConfig decodes a TOML file over cfg. Unknown keys are an error so that
// typos do not silently fall back to defaults.
func loadConfig(file string, cfg *jumpdestConfig) error {
	md, err := toml.DecodeFile(file, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%s: unknown field %q", file, undecoded[0].String())
	}
	return nil
}

// makeConfig applies, in order, defaults, the config file and explicit flags.
func makeConfig(ctx *cli.Context) (jumpdestConfig, error) {
	cfg := defaultConfig()
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(verbosityFlag.Name) {
		cfg.Log.Verbosity = ctx.Int(verbosityFlag.Name)
	}
	if ctx.IsSet(cacheFlag.Name) {
		cfg.Analyzer.CacheSize = ctx.Int(cacheFlag.Name)
	}
	return cfg, nil
}

func setupLogging(cfg logConfig) {
	handler := log.StreamHandler(os.Stderr, log.TerminalFormat(false))
	log.Root().SetHandler(log.LvlFilterHandler(log.Lvl(cfg.Verbosity), handler))
}

// makeAnalyzer builds the analyzer for a command and configures logging.
func makeAnalyzer(ctx *cli.Context) (*analysis.JumpdestAnalyzer, error) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log)
	return analysis.NewJumpdestAnalyzer(cfg.Analyzer)
}
