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
	"math"

	"go.opentelemetry.io/otel"

	"github.com/jjessel/ledgerlink/internal/apierror"
	"github.com/jjessel/ledgerlink/model"
)

// LinkTransactions links one bank record to one or more context records.
// The new context ids are unioned with any links the bank record already
// carries, so linking a second order to a charge keeps the first.
//
// The operation is all-or-nothing: every precondition on every id is
// verified before the single mutating write. Preconditions are the role
// of each side (bank record must not be context-only, every context id
// must name a context-only record) and exclusivity (a context record may
// be linked from at most one bank record).
//
// Parameters:
// - ctx context.Context: The context for the operation.
// - bankTransactionID string: The bank-side record receiving the links.
// - contextIDs []string: The context record ids to attach.
//
// Returns:
// - *model.Transaction: The bank record with its updated link set.
// - error: An error if any precondition or the write fails.
func (l *LedgerLink) LinkTransactions(ctx context.Context, bankTransactionID string, contextIDs []string) (*model.Transaction, error) {
	ctx, span := otel.Tracer("ledgerlink.reconciliation").Start(ctx, "LinkTransactions")
	defer span.End()

	if bankTransactionID == "" {
		return nil, apierror.ValidationError("bank transaction id is required")
	}
	if len(contextIDs) == 0 {
		return nil, apierror.ValidationError("at least one context id is required")
	}

	bank, err := l.datasource.GetTransaction(ctx, bankTransactionID)
	if err != nil {
		return nil, err
	}
	if bank.IsContextOnly {
		return nil, apierror.ValidationError(fmt.Sprintf("transaction %s is context-only and cannot carry links", bankTransactionID))
	}

	linked := make(map[string]struct{}, len(bank.LinkedOrderIDs))
	for _, id := range bank.LinkedOrderIDs {
		linked[id] = struct{}{}
	}

	merged := append([]string{}, bank.LinkedOrderIDs...)
	for _, contextID := range contextIDs {
		if _, ok := linked[contextID]; ok {
			// Already linked here; re-linking is a no-op, not an error.
			continue
		}

		contextTxn, err := l.datasource.GetTransaction(ctx, contextID)
		if err != nil {
			return nil, err
		}
		if !contextTxn.IsContextOnly {
			return nil, apierror.ValidationError(fmt.Sprintf("transaction %s is not a context record", contextID))
		}

		holders, err := l.datasource.GetBankTransactionsByLinkedID(ctx, contextID)
		if err != nil {
			return nil, err
		}
		for _, holder := range holders {
			if holder.TransactionID != bankTransactionID {
				return nil, apierror.ValidationError(
					fmt.Sprintf("context record %s is already linked to bank transaction %s", contextID, holder.TransactionID))
			}
		}

		linked[contextID] = struct{}{}
		merged = append(merged, contextID)
	}

	return l.datasource.UpdateTransactionLinks(ctx, bankTransactionID, merged)
}

// UnlinkTransactions removes context links from a bank record. With an
// empty contextIDs it clears every link; otherwise it removes exactly the
// named ids, and naming an id that is not currently linked fails the whole
// call before anything is written.
//
// Parameters:
// - ctx context.Context: The context for the operation.
// - bankTransactionID string: The bank-side record to unlink.
// - contextIDs []string: The context ids to detach, or empty for all.
//
// Returns:
// - *model.Transaction: The bank record with its updated link set.
// - error: An error if the record has no links, an id is not linked, or the write fails.
func (l *LedgerLink) UnlinkTransactions(ctx context.Context, bankTransactionID string, contextIDs []string) (*model.Transaction, error) {
	ctx, span := otel.Tracer("ledgerlink.reconciliation").Start(ctx, "UnlinkTransactions")
	defer span.End()

	if bankTransactionID == "" {
		return nil, apierror.ValidationError("bank transaction id is required")
	}

	bank, err := l.datasource.GetTransaction(ctx, bankTransactionID)
	if err != nil {
		return nil, err
	}
	if !bank.HasLinks() {
		return nil, apierror.ValidationError(fmt.Sprintf("transaction %s has no links to remove", bankTransactionID))
	}

	if len(contextIDs) == 0 {
		return l.datasource.UpdateTransactionLinks(ctx, bankTransactionID, []string{})
	}

	remove := make(map[string]struct{}, len(contextIDs))
	for _, id := range contextIDs {
		remove[id] = struct{}{}
	}
	linked := make(map[string]struct{}, len(bank.LinkedOrderIDs))
	for _, id := range bank.LinkedOrderIDs {
		linked[id] = struct{}{}
	}
	for id := range remove {
		if _, ok := linked[id]; !ok {
			return nil, apierror.ValidationError(fmt.Sprintf("context record %s is not linked to transaction %s", id, bankTransactionID))
		}
	}

	remaining := make([]string, 0, len(bank.LinkedOrderIDs))
	for _, id := range bank.LinkedOrderIDs {
		if _, ok := remove[id]; !ok {
			remaining = append(remaining, id)
		}
	}

	return l.datasource.UpdateTransactionLinks(ctx, bankTransactionID, remaining)
}

// GetLinkedDetails resolves a bank record's links into the full context
// records and reports how well the amounts line up. A linked id whose
// record has since been deleted is skipped rather than failing the lookup.
func (l *LedgerLink) GetLinkedDetails(ctx context.Context, bankTransactionID string) (*model.LinkedDetails, error) {
	ctx, span := otel.Tracer("ledgerlink.reconciliation").Start(ctx, "GetLinkedDetails")
	defer span.End()

	bank, err := l.datasource.GetTransaction(ctx, bankTransactionID)
	if err != nil {
		return nil, err
	}
	if bank.IsContextOnly {
		return nil, apierror.ValidationError(fmt.Sprintf("transaction %s is context-only", bankTransactionID))
	}

	details := &model.LinkedDetails{
		BankTransaction: bank,
		LinkedContext:   []*model.Transaction{},
	}
	for _, contextID := range bank.LinkedOrderIDs {
		contextTxn, err := l.datasource.GetTransaction(ctx, contextID)
		if err != nil {
			if apierror.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		details.LinkedContext = append(details.LinkedContext, contextTxn)
		details.TotalContextAmount += contextTxn.AbsAmount()
	}
	details.AmountDifference = math.Abs(details.TotalContextAmount - bank.AbsAmount())

	return details, nil
}

// AutoMatchAll applies a set of suggestions as confirmed links. A failed
// pair is recorded and the batch continues; the result reports both
// counts so a partially applied run is visible to the caller.
func (l *LedgerLink) AutoMatchAll(ctx context.Context, suggestions []model.MatchSuggestion) *model.AutoMatchResult {
	ctx, span := otel.Tracer("ledgerlink.reconciliation").Start(ctx, "AutoMatchAll")
	defer span.End()

	result := &model.AutoMatchResult{}
	for _, suggestion := range suggestions {
		if _, err := l.LinkTransactions(ctx, suggestion.BankTransactionID, suggestion.ContextIDs); err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", suggestion.BankTransactionID, err))
			continue
		}
		result.LinkedCount++
	}
	return result
}

// AutoMatchPlatform runs the matching overview for a platform and applies
// only its high-confidence suggestions. Medium-confidence pairs stay
// suggestions for a human to confirm.
func (l *LedgerLink) AutoMatchPlatform(ctx context.Context, platform model.Platform) (*model.AutoMatchResult, error) {
	ctx, span := otel.Tracer("ledgerlink.reconciliation").Start(ctx, "AutoMatchPlatform")
	defer span.End()

	overview, err := l.MatchingOverview(ctx, platform)
	if err != nil {
		return nil, err
	}

	var confirmed []model.MatchSuggestion
	for _, suggestion := range overview.Suggestions {
		if suggestion.Confidence == model.ConfidenceHigh {
			confirmed = append(confirmed, suggestion)
		}
	}
	return l.AutoMatchAll(ctx, confirmed), nil
}
