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
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	model2 "github.com/jjessel/ledgerlink/api/model"
	"github.com/jjessel/ledgerlink/config"
	"github.com/jjessel/ledgerlink/internal/apierror"
	"github.com/jjessel/ledgerlink/model"
)

const overviewCachePrefix = "ledgerlink:overview:"

// buildOverviewPayload shapes the engine overview for the wire. The
// context list is named after the platform: ordersUnlinked for the
// marketplace, importsUnlinked for the payment provider.
func buildOverviewPayload(overview *model.MatchingOverview) gin.H {
	contextKey := "importsUnlinked"
	if overview.Platform == model.PlatformAmazon {
		contextKey = "ordersUnlinked"
	}
	return gin.H{
		"platform":     overview.Platform,
		"bankUnlinked": overview.BankUnlinked,
		contextKey:     overview.ContextUnlinked,
		"bankLinked":   overview.BankLinked,
		"suggestions":  overview.Suggestions,
		"stats":        overview.Stats,
	}
}

// overviewCacheEnabled reports whether this instance serves overviews from
// the cache, and with what TTL.
func (a Api) overviewCacheEnabled() (bool, time.Duration) {
	if a.cache == nil {
		return false, 0
	}
	conf, err := config.Fetch()
	if err != nil || !conf.OverviewCache.Enabled {
		return false, 0
	}
	return true, time.Duration(conf.OverviewCache.TTLSeconds) * time.Second
}

// invalidateOverviewCache drops the cached overview of every platform.
// Called after each mutation so a cached snapshot never outlives the data
// it summarizes by more than the in-flight request.
func (a Api) invalidateOverviewCache(ctx context.Context) {
	if a.cache == nil {
		return
	}
	for _, platform := range model.KnownPlatforms {
		if err := a.cache.Delete(ctx, overviewCachePrefix+string(platform)); err != nil {
			logrus.Warnf("failed to invalidate overview cache for %s: %v", platform, err)
		}
	}
}

// GetMatchingOverview serves the per-platform reconciliation snapshot,
// cached for a short TTL when the overview cache is enabled.
func (a Api) GetMatchingOverview(c *gin.Context) {
	platformParam, passed := c.Params.Get("platform")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform is required. pass it in the route /:platform/overview"})
		return
	}
	platform, err := model.ParsePlatform(platformParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	cached, ttl := a.overviewCacheEnabled()
	cacheKey := overviewCachePrefix + string(platform)

	if cached {
		var payload map[string]interface{}
		if err := a.cache.Get(ctx, cacheKey, &payload); err == nil && payload != nil {
			c.JSON(http.StatusOK, payload)
			return
		}
	}

	overview, err := a.engine.MatchingOverview(ctx, platform)
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	payload := buildOverviewPayload(overview)
	if cached {
		if err := a.cache.Set(ctx, cacheKey, map[string]interface{}(payload), ttl); err != nil {
			logrus.Warnf("failed to cache overview for %s: %v", platform, err)
		}
	}

	c.JSON(http.StatusOK, payload)
}

// LinkTransactions confirms a bank-to-context link.
func (a Api) LinkTransactions(c *gin.Context) {
	var req model2.LinkTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateLinkTransactions(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := a.engine.LinkTransactions(c.Request.Context(), req.BankTransactionID, req.ResolveContextIDs())
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	a.invalidateOverviewCache(c.Request.Context())
	c.JSON(http.StatusOK, txn)
}

// UnlinkTransactions removes links from a bank record; an empty id list
// clears all of them.
func (a Api) UnlinkTransactions(c *gin.Context) {
	var req model2.UnlinkTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateUnlinkTransactions(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := a.engine.UnlinkTransactions(c.Request.Context(), req.BankTransactionID, req.ResolveContextIDs())
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	a.invalidateOverviewCache(c.Request.Context())
	c.JSON(http.StatusOK, txn)
}

// AutoMatch applies all high-confidence suggestions for a platform.
func (a Api) AutoMatch(c *gin.Context) {
	platformParam, passed := c.Params.Get("platform")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform is required. pass it in the route /:platform/auto-match"})
		return
	}
	platform, err := model.ParsePlatform(platformParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := a.engine.AutoMatchPlatform(c.Request.Context(), platform)
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	a.invalidateOverviewCache(c.Request.Context())
	c.JSON(http.StatusOK, result)
}

// GetLinkedDetails resolves a bank record's links into full context records.
func (a Api) GetLinkedDetails(c *gin.Context) {
	bankID, passed := c.Params.Get("bank_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bank transaction id is required. pass id in the route /links/:bank_id"})
		return
	}

	details, err := a.engine.GetLinkedDetails(c.Request.Context(), bankID)
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, details)
}
