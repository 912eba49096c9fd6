package server

import (
	"errors"
	"strings"
	"time"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/audit"
	"inventory-backend/internal/config"
	"inventory-backend/internal/importer"
	"inventory-backend/internal/inventory"
	"inventory-backend/internal/metrics"
	"inventory-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// New wires repositories, middleware and routes into a fiber app. Collectors
// are registered on reg and served from it at /metrics.
func New(cfg *config.Config, l logrus.FieldLogger, db *gorm.DB, reg *prometheus.Registry) *fiber.App {
	m := metrics.New(reg)

	app := fiber.New(fiber.Config{
		AppName:               "inventory",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(l),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(requestContext())
	app.Use(requestLogger(l))
	app.Use(m.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: joinOrigins(cfg.Origins()),
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	stores := store.NewRepository(db, l, m)
	items := inventory.NewRepository(db, l, m)
	query := inventory.NewQuery(db)

	app.Get("/metrics", metrics.Handler(reg))

	api := app.Group("/api")

	api.Get("/stores", store.ListStoresHandler(stores))
	api.Post("/stores", store.CreateStoreHandler(stores))
	api.Put("/stores/:id", store.RenameStoreHandler(stores))
	api.Delete("/stores/:id", store.DeleteStoreHandler(stores))

	api.Get("/inventory", inventory.ListInventoryHandler(query))
	api.Get("/inventory/inactive", inventory.ListInactiveHandler(query))
	api.Get("/inventory/location/:location", inventory.ListInventoryByLocationHandler(query))
	api.Post("/inventory", inventory.CreateItemHandler(items))
	api.Post("/inventory/import", importer.ImportHandler(items))
	api.Put("/inventory/:id", inventory.UpdateItemHandler(items))
	api.Patch("/inventory/:id/quantity", inventory.PatchQuantityHandler(items))
	api.Patch("/inventory/:id/extra", inventory.PatchExtraHandler(items))
	api.Patch("/inventory/:id/purchase", inventory.RecordPurchaseHandler(items))
	api.Patch("/inventory/:id/active", inventory.SetActiveHandler(items))
	api.Delete("/inventory/:id", inventory.DeleteItemHandler(items))

	api.Get("/locations", inventory.ListLocationsHandler(query))
	api.Put("/locations/:location", inventory.RenameLocationHandler(items))
	api.Delete("/locations/:location", inventory.DeleteLocationHandler(items))

	api.Get("/shopping-list", inventory.ShoppingListHandler(query))
	api.Get("/shopping-list/export", inventory.ExportShoppingListHandler(query))
	api.Get("/shopping-list/location/:location", inventory.ShoppingListByLocationHandler(query))

	api.Get("/audit-logs", audit.ListAuditLogsHandler(db))
	api.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler(db))

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	return app
}

func errorHandler(l logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if status, msg, ok := apperr.Status(err); ok {
			if status >= fiber.StatusInternalServerError {
				l.WithError(err).WithField("request_id", requestID(c)).Error("Request failed.")
			}
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		l.WithError(err).WithField("request_id", requestID(c)).Error("Unexpected error.")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
	return id
}

// requestContext copies the request id into the user context so repositories
// can tag audit entries with it.
func requestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(audit.WithRequestID(c.UserContext(), requestID(c)))
		return c.Next()
	}
}

func requestLogger(l logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		entry := l.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    time.Since(start).String(),
			"request_id": requestID(c),
		})
		if status >= fiber.StatusInternalServerError {
			entry.Warn("Request completed.")
		} else {
			entry.Debug("Request completed.")
		}
		return err
	}
}

func joinOrigins(origins []string) string {
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ",")
}
