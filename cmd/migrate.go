/*
Copyright 2024 LedgerLink Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/jjessel/ledgerlink/database"
)

// migrateCommands applies the schema. The DDL is idempotent, so running it
// against an up-to-date database is a no-op.
func migrateCommands(app *appInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "create the ledgerlink schema and indexes",
		Run: func(cmd *cobra.Command, args []string) {
			db, err := database.ConnectDB(app.cnf.DataSource.Dns)
			if err != nil {
				log.Fatalf("migration failed: %v", err)
			}
			defer db.Close()
			log.Println("schema is up to date")
		},
	})

	return cmd
}
