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
	"encoding/json"
	"math"
	"time"
)

// SourceInfo describes where an imported record came from. It is absent on
// manually created records.
type SourceInfo struct {
	ConnectorType string     `json:"connectorType"`
	ExternalID    string     `json:"externalId,omitempty"`
	ImportedAt    *time.Time `json:"importedAt,omitempty"`
}

// Transaction is the unit of record in the ledger. Amount is signed:
// negative is an outflow, positive an inflow. The sign is load-bearing; a
// purchase and its refund share magnitude but are not the same event.
//
// Context-only transactions (marketplace orders, payment-provider transfers)
// document the contents of a bank charge and are excluded from statistics.
// They never carry LinkedOrderIDs; only bank-side records do.
type Transaction struct {
	ID             int64                  `json:"-"`
	TransactionID  string                 `json:"id"`
	Date           time.Time              `json:"date"`
	Amount         float64                `json:"amount"`
	Description    string                 `json:"description"`
	Beneficiary    string                 `json:"beneficiary,omitempty"`
	Category       string                 `json:"category,omitempty"`
	Source         *SourceInfo            `json:"source,omitempty"`
	IsContextOnly  bool                   `json:"isContextOnly"`
	LinkedOrderIDs []string               `json:"linkedOrderIds,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	MetaData       map[string]interface{} `json:"metaData,omitempty"`
}

func (transaction *Transaction) ToJSON() ([]byte, error) {
	return json.Marshal(transaction)
}

// HasLinks reports whether the record carries at least one context link.
func (transaction *Transaction) HasLinks() bool {
	return len(transaction.LinkedOrderIDs) > 0
}

// AbsAmount returns the unsigned magnitude of the amount. Duplicate keys
// compare the signed amount; amount matching between a bank debit and a
// context total compares magnitudes.
func (transaction *Transaction) AbsAmount() float64 {
	return math.Abs(transaction.Amount)
}

// ConnectorType returns the source connector type, or "" for records
// without source information.
func (transaction *Transaction) ConnectorType() string {
	if transaction.Source == nil {
		return ""
	}
	return transaction.Source.ConnectorType
}

// ExternalID returns the source external id, or "" for records without one.
func (transaction *Transaction) ExternalID() string {
	if transaction.Source == nil {
		return ""
	}
	return transaction.Source.ExternalID
}

// DayKey is the transaction date truncated to the calendar day in UTC.
// Truncation happens in UTC so the same instant always yields the same key
// regardless of the server timezone.
func (transaction *Transaction) DayKey() string {
	return transaction.Date.UTC().Format("2006-01-02")
}
