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

package ledgerlink

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wacul/ptr"
	"go.opentelemetry.io/otel"

	"github.com/jjessel/ledgerlink/model"
)

// The import-time duplicate check is deliberately a different algorithm
// from the duplicate sweep in dedup.go: the sweep is a batch
// equivalence-class grouping for maintenance, this is a per-record
// ingestion gate. Keep them separate.

// externalIDKey identifies a record by its source: two records of the same
// connector type sharing an external id are always the same record.
func externalIDKey(txn *model.Transaction) string {
	if txn.ConnectorType() == "" || txn.ExternalID() == "" {
		return ""
	}
	return txn.ConnectorType() + "|" + txn.ExternalID()
}

// signatureKey is the fallback identity when no external id decides it:
// exact equality of day-truncated date, signed 2dp amount and the
// first-30-chars-normalized description.
func signatureKey(txn *model.Transaction) string {
	return fmt.Sprintf("%s|%s|%s",
		txn.DayKey(),
		decimal.NewFromFloat(txn.Amount).StringFixed(2),
		normalizeIdentity(txn.Description),
	)
}

// IsDuplicate reports whether candidate duplicates any record in existing.
// Pure and side-effect free. For bulk ingestion use NewDuplicateChecker,
// which answers the same question in near-constant time per record.
func IsDuplicate(candidate *model.Transaction, existing []*model.Transaction) bool {
	return NewDuplicateChecker(existing).IsDuplicate(candidate)
}

// DuplicateChecker precomputes the two lookup sets (external id keys and
// signature keys) over an existing transaction set so each new record is
// checked without scanning.
type DuplicateChecker struct {
	externalIDs map[string]struct{}
	signatures  map[string]struct{}
}

func NewDuplicateChecker(existing []*model.Transaction) *DuplicateChecker {
	c := &DuplicateChecker{
		externalIDs: make(map[string]struct{}, len(existing)),
		signatures:  make(map[string]struct{}, len(existing)),
	}
	for _, txn := range existing {
		c.Add(txn)
	}
	return c
}

// Add registers a record's keys, so records accepted mid-batch guard
// against duplicates later in the same batch.
func (c *DuplicateChecker) Add(txn *model.Transaction) {
	if key := externalIDKey(txn); key != "" {
		c.externalIDs[key] = struct{}{}
	}
	c.signatures[signatureKey(txn)] = struct{}{}
}

// IsDuplicate applies the primary external-id test. A candidate carrying
// a source identity is decided by it alone: an unknown (connector,
// external id) pair is a new record even when its signature collides,
// since two orders can share day, amount and title. Only candidates
// without a source identity fall back to the signature.
func (c *DuplicateChecker) IsDuplicate(candidate *model.Transaction) bool {
	if key := externalIDKey(candidate); key != "" {
		_, ok := c.externalIDs[key]
		return ok
	}
	_, ok := c.signatures[signatureKey(candidate)]
	return ok
}

// ImportTransactions ingests a batch of records, gated by the import-time
// duplicate check against the existing set and against earlier records of
// the same batch. Each accepted record is written individually; the batch
// is not one transaction, which is safe because re-importing the same
// batch skips everything already written.
func (l *LedgerLink) ImportTransactions(ctx context.Context, txns []*model.Transaction) (*model.ImportSummary, error) {
	ctx, span := otel.Tracer("ledgerlink.reconciliation").Start(ctx, "ImportTransactions")
	defer span.End()

	existing, err := l.datasource.GetAllTransactions(ctx)
	if err != nil {
		return nil, err
	}
	checker := NewDuplicateChecker(existing)

	summary := &model.ImportSummary{Total: len(txns)}
	now := time.Now()
	for _, txn := range txns {
		if checker.IsDuplicate(txn) {
			summary.SkippedDuplicates++
			continue
		}

		if txn.TransactionID == "" {
			txn.TransactionID = model.GenerateUUIDWithSuffix("txn")
		}
		// Context records never carry links; only bank records do.
		if txn.IsContextOnly {
			txn.LinkedOrderIDs = nil
		}
		if txn.CreatedAt.IsZero() {
			txn.CreatedAt = now
		}
		if txn.Source != nil && txn.Source.ImportedAt == nil {
			txn.Source.ImportedAt = ptr.Time(now)
		}

		if _, err := l.datasource.RecordTransaction(ctx, txn); err != nil {
			return summary, err
		}
		checker.Add(txn)
		summary.Imported++
	}

	return summary, nil
}
