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
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	model2 "github.com/jjessel/ledgerlink/api/model"
	"github.com/jjessel/ledgerlink/internal/apierror"
)

// FindDuplicates runs a duplicate sweep and returns the report without
// deleting anything.
func (a Api) FindDuplicates(c *gin.Context) {
	report, err := a.engine.FindDuplicates(c.Request.Context())
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// RemoveDuplicate deletes one record by id.
func (a Api) RemoveDuplicate(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transaction id is required. pass id in the route /duplicates/:id"})
		return
	}

	if err := a.engine.RemoveDuplicate(c.Request.Context(), id); err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	a.invalidateOverviewCache(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"removed": id})
}

// AutoRemoveDuplicates deletes every record the duplicate resolver
// recommends for removal.
func (a Api) AutoRemoveDuplicates(c *gin.Context) {
	removed, err := a.engine.RemoveDuplicatesAuto(c.Request.Context())
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	a.invalidateOverviewCache(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"removed": removed, "removedCount": len(removed)})
}

// ImportTransactions bulk-ingests records, skipping import-time duplicates.
func (a Api) ImportTransactions(c *gin.Context) {
	var req model2.ImportTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateImportTransactions(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := a.engine.ImportTransactions(c.Request.Context(), req.Transactions)
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	a.invalidateOverviewCache(c.Request.Context())
	c.JSON(http.StatusCreated, summary)
}
