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

package database

import (
	"database/sql"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/jjessel/ledgerlink/config"
)

type Datasource struct {
	Conn *sql.DB
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := ConnectDB(configuration.DataSource.Dns)
	if err != nil {
		return nil, err
	}
	return &Datasource{Conn: con}, nil
}

// ConnectDB opens the postgres connection and ensures the schema exists.
// The initial ping is retried with exponential backoff so a server that
// starts alongside its database does not flap.
func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, errors.Wrap(err, "opening postgres connection")
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	err = backoff.Retry(func() error {
		return db.Ping()
	}, policy)
	if err != nil {
		log.Printf("database connection error: %v", err)
		return nil, errors.Wrap(err, "pinging postgres")
	}

	if err := createTransactionTable(db); err != nil {
		return nil, err
	}
	return db, nil
}

func createTransactionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE SCHEMA IF NOT EXISTS ledgerlink;
		CREATE TABLE IF NOT EXISTS ledgerlink.transactions (
			id SERIAL PRIMARY KEY,
			transaction_id TEXT NOT NULL UNIQUE,
			date TIMESTAMPTZ NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			beneficiary TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			source JSONB,
			is_context_only BOOLEAN NOT NULL DEFAULT FALSE,
			linked_order_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			meta_data JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_linked_order_ids
			ON ledgerlink.transactions USING GIN (linked_order_ids);
		CREATE INDEX IF NOT EXISTS idx_transactions_date
			ON ledgerlink.transactions (date);
	`)
	if err != nil {
		return errors.Wrap(err, "creating transactions table")
	}
	return nil
}
