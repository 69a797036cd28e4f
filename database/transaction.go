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
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/jjessel/ledgerlink/internal/apierror"
	"github.com/jjessel/ledgerlink/model"

	_ "github.com/lib/pq"
)

const transactionColumns = `transaction_id, date, amount, description, beneficiary, category, source, is_context_only, linked_order_ids, created_at, meta_data`

func (d *Datasource) RecordTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	ctx, span := otel.Tracer("ledgerlink.database").Start(ctx, "Saving transaction to db")
	defer span.End()

	sourceJSON, err := marshalNullable(txn.Source)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal source", err)
	}
	metaDataJSON, err := marshalNullable(txn.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}
	linkedJSON, err := json.Marshal(emptyIfNil(txn.LinkedOrderIDs))
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal linked ids", err)
	}

	_, err = d.Conn.ExecContext(ctx,
		`INSERT INTO ledgerlink.transactions(transaction_id,date,amount,description,beneficiary,category,source,is_context_only,linked_order_ids,created_at,meta_data) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		txn.TransactionID, txn.Date, txn.Amount, txn.Description, txn.Beneficiary, txn.Category, sourceJSON, txn.IsContextOnly, linkedJSON, txn.CreatedAt, metaDataJSON,
	)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record transaction", err)
	}

	return txn, nil
}

func (d *Datasource) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM ledgerlink.transactions
		WHERE transaction_id = $1
	`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transaction", err)
	}
	return txn, nil
}

// GetAllTransactions returns the full current transaction set. The engine
// recomputes over this snapshot on every call; there is no incremental
// path.
func (d *Datasource) GetAllTransactions(ctx context.Context) ([]*model.Transaction, error) {
	ctx, span := otel.Tracer("ledgerlink.database").Start(ctx, "Fetching all transactions")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM ledgerlink.transactions
		ORDER BY date, id
	`)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transactions", err)
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transaction", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to iterate transactions", err)
	}

	return transactions, nil
}

// UpdateTransactionLinks replaces the linked context ids on a bank record
// and returns the updated row. The engine computes the union/removal
// upfront; this write is the single persistence operation per pair.
func (d *Datasource) UpdateTransactionLinks(ctx context.Context, id string, linkedOrderIDs []string) (*model.Transaction, error) {
	ctx, span := otel.Tracer("ledgerlink.database").Start(ctx, "Updating transaction links")
	defer span.End()

	linkedJSON, err := json.Marshal(emptyIfNil(linkedOrderIDs))
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal linked ids", err)
	}

	row := d.Conn.QueryRowContext(ctx, `
		UPDATE ledgerlink.transactions
		SET linked_order_ids = $2
		WHERE transaction_id = $1
		RETURNING `+transactionColumns+`
	`, id, linkedJSON)

	txn, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update transaction links", err)
	}
	return txn, nil
}

func (d *Datasource) DeleteTransaction(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("ledgerlink.database").Start(ctx, "Deleting transaction")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		DELETE FROM ledgerlink.transactions WHERE transaction_id = $1
	`, id)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to delete transaction", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read delete result", err)
	}
	if affected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", id), sql.ErrNoRows)
	}
	return nil
}

// GetBankTransactionsByLinkedID returns the bank records whose
// linkedOrderIds reference the given context id. Backed by the GIN index
// on linked_order_ids.
func (d *Datasource) GetBankTransactionsByLinkedID(ctx context.Context, contextID string) ([]*model.Transaction, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM ledgerlink.transactions
		WHERE linked_order_ids @> jsonb_build_array($1::text)
	`, contextID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to query linked transactions", err)
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transaction", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to iterate linked transactions", err)
	}
	return transactions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	txn := &model.Transaction{}
	var sourceJSON, linkedJSON, metaDataJSON []byte

	err := row.Scan(&txn.TransactionID, &txn.Date, &txn.Amount, &txn.Description, &txn.Beneficiary,
		&txn.Category, &sourceJSON, &txn.IsContextOnly, &linkedJSON, &txn.CreatedAt, &metaDataJSON)
	if err != nil {
		return nil, err
	}

	if len(sourceJSON) > 0 {
		if err := json.Unmarshal(sourceJSON, &txn.Source); err != nil {
			return nil, err
		}
	}
	if len(linkedJSON) > 0 {
		if err := json.Unmarshal(linkedJSON, &txn.LinkedOrderIDs); err != nil {
			return nil, err
		}
	}
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &txn.MetaData); err != nil {
			return nil, err
		}
	}
	return txn, nil
}

func marshalNullable(v interface{}) ([]byte, error) {
	switch value := v.(type) {
	case *model.SourceInfo:
		if value == nil {
			return nil, nil
		}
	case map[string]interface{}:
		if value == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
