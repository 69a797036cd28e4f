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
	"github.com/jjessel/ledgerlink/database"
)

// LedgerLink is the transaction reconciliation engine. It is a pure
// function of its injected datasource: every operation recomputes over a
// freshly fetched snapshot of the transaction set, holds no locks, and
// keeps no engine-owned cache.
type LedgerLink struct {
	datasource database.IDataSource
}

// NewLedgerLink initializes the engine with the provided datasource.
//
// Parameters:
// - db database.IDataSource: The datasource for transaction store operations.
//
// Returns:
// - *LedgerLink: A pointer to the newly created engine instance.
func NewLedgerLink(db database.IDataSource) *LedgerLink {
	return &LedgerLink{datasource: db}
}
