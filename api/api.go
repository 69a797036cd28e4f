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
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gin-gonic/gin"

	"github.com/jjessel/ledgerlink"
	"github.com/jjessel/ledgerlink/api/middleware"
	"github.com/jjessel/ledgerlink/config"
	"github.com/jjessel/ledgerlink/internal/cache"
	"github.com/jjessel/ledgerlink/model"
)

type Api struct {
	engine *ledgerlink.LedgerLink
	cache  cache.Cache
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.GET("/reconciliation/:platform/overview", a.GetMatchingOverview)
	router.POST("/reconciliation/:platform/auto-match", a.AutoMatch)
	router.POST("/reconciliation/links", a.LinkTransactions)
	router.DELETE("/reconciliation/links", a.UnlinkTransactions)
	router.GET("/reconciliation/links/:bank_id", a.GetLinkedDetails)

	router.POST("/duplicates/find", a.FindDuplicates)
	router.POST("/duplicates/auto-remove", a.AutoRemoveDuplicates)
	router.DELETE("/duplicates/:id", a.RemoveDuplicate)

	router.POST("/transactions/import", a.ImportTransactions)

	router.GET("/mocked-transaction", a.generateMockTransaction)
	return a.router
}

// generateMockTransaction returns a plausible bank-side record for demos
// and client development. Nothing is persisted.
func (a Api) generateMockTransaction(c *gin.Context) {
	descriptions := []string{
		"AMAZON.DE BESTELLUNG " + gofakeit.Numerify("#######-#######"),
		"PAYPAL " + gofakeit.Company(),
		gofakeit.Company() + " SAGT DANKE",
	}
	txn := &model.Transaction{
		TransactionID: model.GenerateUUIDWithSuffix("txn"),
		Date:          gofakeit.DateRange(time.Now().AddDate(0, -3, 0), time.Now()),
		Amount:        -gofakeit.Price(1, 500),
		Description:   descriptions[gofakeit.Number(0, len(descriptions)-1)],
		Beneficiary:   gofakeit.Company(),
		CreatedAt:     time.Now(),
	}
	c.JSON(200, txn)
}

// NewAPI sets up the HTTP surface over the reconciliation engine. The
// cache is optional; pass nil to serve overviews uncached. It fails when
// no configuration has been loaded.
func NewAPI(engine *ledgerlink.LedgerLink, cch cache.Cache) (*Api, error) {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	r := gin.Default()
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}
	r.Use(middleware.RateLimitMiddleware(conf))

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{engine: engine, cache: cch, router: r}, nil
}
