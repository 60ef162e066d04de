// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "msdata",
	Short: "msdata ingests regulatory filings and market data for tracked companies",
	Long: `msdata is a scheduled ingestion pipeline that retrieves the latest
regulatory filings for a set of tracked public companies, enriches each filing
with market context (price history and fundamental ratios), and persists the
results to durable object storage under deterministic key prefixes.

One run executes three stages in a fixed order:

	1. ingest_filings - fetch each company's latest filing, extract its key
	   text sections and structured facts, and save one object per filing
	2. ingest_market  - fetch each company's price history and fundamentals,
	   save them, and attach a market summary to each filing record
	3. finalize       - write the full enriched record list as one combined,
	   timestamped snapshot

Runs are scheduled daily in daemon mode; each stage is retried once after a
delay before the run is marked failed.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.msdata.toml)")
	rootCmd.PersistentFlags().String("dbUrl", "", "run ledger connection string")
	if err := viper.BindPFlag("DBUrl", rootCmd.PersistentFlags().Lookup("dbUrl")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for dbUrl failed")
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".msdata" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".msdata")
	}

	viper.SetDefault("pipeline.form_type", "10-K")
	viper.SetDefault("pipeline.top_n", 10)
	viper.SetDefault("pipeline.period", "5y")
	viper.SetDefault("pipeline.interval", "1d")
	viper.SetDefault("pipeline.stage_retries", 1)
	viper.SetDefault("pipeline.retry_delay", "10m")
	viper.SetDefault("pipeline.min_request_interval", "200ms")
	viper.SetDefault("pipeline.schedule", "0 6 * * *")
	viper.SetDefault("tickers.source", "index")
	viper.SetDefault("tickers.index_url", "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies")
	viper.SetDefault("tickers.user_agent", "MarketScopeBot/1.0")
	viper.SetDefault("storage.backend", "backblaze")
	viper.SetDefault("storage.root", "./data")

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}
