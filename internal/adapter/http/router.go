package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aq2208/stockroom-api/internal/adapter/http/middleware"
	"github.com/aq2208/stockroom-api/internal/logging"
)

// ReadyCheck reports whether a dependency is reachable.
type ReadyCheck func(ctx context.Context) error

type RouterDeps struct {
	Orders     *OrderHandler
	Warranties *WarrantyHandler
	Suppliers  *SupplierHandler
	Catalog    *CatalogHandler
	Activity   *ActivityHandler
	Token      *TokenHandler
	Authz      *middleware.Authz

	Logger         *slog.Logger
	AllowOrigin    string
	RequestTimeout time.Duration
	Ready          map[string]ReadyCheck
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := d.Logger
	if l == nil {
		l = logging.New("http")
	}
	r.Use(middleware.Logging(l), middleware.SecurityHeaders(d.AllowOrigin), middleware.Timeout(d.RequestTimeout))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/readyz", func(c *gin.Context) {
		failed := gin.H{}
		for name, check := range d.Ready {
			if err := check(c.Request.Context()); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			logging.From(c).Warn("readiness check failed", "failed", failed)
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/token", d.Token.IssueToken)

		v1.GET("/orders", d.Authz.Require("orders.read"), d.Orders.ListOrders)
		v1.POST("/orders", d.Authz.Require("orders.write"), d.Orders.CreateOrder)
		v1.GET("/orders/:id", d.Authz.Require("orders.read"), d.Orders.GetOrderByID)
		v1.PUT("/orders/:id", d.Authz.Require("orders.write"), d.Orders.UpdateOrder)
		v1.DELETE("/orders/:id", d.Authz.Require("orders.write"), d.Orders.DeleteOrder)

		v1.GET("/warranties", d.Authz.Require("warranties.read"), d.Warranties.ListWarranties)
		v1.POST("/warranties", d.Authz.Require("warranties.write"), d.Warranties.RegisterWarranty)
		v1.POST("/warranties/register", d.Authz.Require("warranties.write"), d.Warranties.RegisterWithPayment)
		v1.GET("/warranties/:id", d.Authz.Require("warranties.read"), d.Warranties.GetWarranty)
		v1.PUT("/warranties/:id", d.Authz.Require("warranties.write"), d.Warranties.UpdateWarranty)
		v1.DELETE("/warranties/:id", d.Authz.Require("warranties.write"), d.Warranties.DeleteWarranty)
		v1.POST("/warranties/:id/payments", d.Authz.Require("warranties.write"), d.Warranties.RegisterPayment)

		v1.GET("/suppliers", d.Authz.Require("suppliers.read"), d.Suppliers.ListSuppliers)
		v1.POST("/suppliers", d.Authz.Require("suppliers.write"), d.Suppliers.CreateSupplier)

		v1.GET("/products", d.Authz.Require("products.read"), d.Catalog.ListProducts)
		v1.POST("/products", d.Authz.Require("products.write"), d.Catalog.CreateProduct)
		v1.GET("/products/:id", d.Authz.Require("products.read"), d.Catalog.GetProduct)
		v1.PUT("/products/:id", d.Authz.Require("products.write"), d.Catalog.UpdateProduct)
		v1.DELETE("/products/:id", d.Authz.Require("products.write"), d.Catalog.DeleteProduct)

		v1.GET("/categories", d.Authz.Require("products.read"), d.Catalog.ListCategories)
		v1.POST("/categories", d.Authz.Require("products.write"), d.Catalog.CreateCategory)
		v1.GET("/categories/:id", d.Authz.Require("products.read"), d.Catalog.GetCategory)
		v1.PUT("/categories/:id", d.Authz.Require("products.write"), d.Catalog.UpdateCategory)
		v1.DELETE("/categories/:id", d.Authz.Require("products.write"), d.Catalog.DeleteCategory)

		v1.GET("/activity", d.Authz.Require("orders.read"), d.Activity.Recent)
	}

	return r
}
