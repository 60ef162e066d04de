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
	"github.com/marketscope/msdata/db"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply run ledger database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		dbURL := viper.GetString("dbUrl")
		if dbURL == "" {
			log.Fatal().Msg("migrate requires a run ledger; set dbUrl")
		}

		if err := db.Migrate(dbURL); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}

		log.Info().Msg("migrations applied")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
