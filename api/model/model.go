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
package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/jjessel/ledgerlink/model"
)

// LinkTransactionsRequest attaches context records to a bank record.
// Clients may send the context ids under orderIds (marketplace),
// paypalIds (payment provider) or the neutral contextIds; the three are
// merged by ResolveContextIDs.
type LinkTransactionsRequest struct {
	BankTransactionID string   `json:"bankTransactionId"`
	OrderIDs          []string `json:"orderIds"`
	PaypalIDs         []string `json:"paypalIds"`
	ContextIDs        []string `json:"contextIds"`
}

func anyContextIDsValidation(r *LinkTransactionsRequest) validation.RuleFunc {
	return func(value interface{}) error {
		if len(r.OrderIDs) == 0 && len(r.PaypalIDs) == 0 && len(r.ContextIDs) == 0 {
			return errors.New("one of orderIds, paypalIds or contextIds is required")
		}
		return nil
	}
}

func (r *LinkTransactionsRequest) ValidateLinkTransactions() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.BankTransactionID, validation.Required),
		validation.Field(&r.ContextIDs, validation.By(anyContextIDsValidation(r))),
	)
}

// ResolveContextIDs merges the three id fields into one deduplicated list,
// preserving first-seen order.
func (r *LinkTransactionsRequest) ResolveContextIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, group := range [][]string{r.ContextIDs, r.OrderIDs, r.PaypalIDs} {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// UnlinkTransactionsRequest detaches context records from a bank record.
// An empty id list clears every link.
type UnlinkTransactionsRequest struct {
	BankTransactionID string   `json:"bankTransactionId"`
	OrderIDs          []string `json:"orderIds"`
	PaypalIDs         []string `json:"paypalIds"`
	ContextIDs        []string `json:"contextIds"`
}

func (r *UnlinkTransactionsRequest) ValidateUnlinkTransactions() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.BankTransactionID, validation.Required),
	)
}

// ResolveContextIDs merges the three id fields, see LinkTransactionsRequest.
func (r *UnlinkTransactionsRequest) ResolveContextIDs() []string {
	link := LinkTransactionsRequest{OrderIDs: r.OrderIDs, PaypalIDs: r.PaypalIDs, ContextIDs: r.ContextIDs}
	return link.ResolveContextIDs()
}

// ImportTransactionsRequest carries a batch of records for bulk ingestion.
type ImportTransactionsRequest struct {
	Transactions []*model.Transaction `json:"transactions"`
}

func (r *ImportTransactionsRequest) ValidateImportTransactions() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Transactions, validation.Required, validation.Length(1, 0)),
	)
}
