package routes

import (
	"Harina-Web-Backend/internal/api/handlers"
	"Harina-Web-Backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Config struct {
	App                *fiber.App
	ReceiptHandler     handlers.ReceiptHandler
	ReceiptItemHandler handlers.ReceiptItemHandler
	SettingHandler     handlers.SettingHandler
	Middleware         middleware.Middleware
	DB                 *gorm.DB
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.Receipts()
	c.ReceiptItems()
	c.Settings()
	c.HealthRoute()
}

func (c *Config) Receipts() {
	receipts := c.App.Group("/api/v1/receipts")
	{
		receipts.Post("/process", c.ReceiptHandler.ProcessReceipt)
		receipts.Get("", c.ReceiptHandler.GetReceipts)
		receipts.Delete("", c.ReceiptHandler.DeleteReceipts)
		receipts.Get("/duplicates", c.ReceiptHandler.GetDuplicateGroups)
		receipts.Post("/reprocess", c.ReceiptHandler.ReprocessBatch)
		receipts.Get("/:id", c.ReceiptHandler.GetReceiptDetails)
		receipts.Post("/:id/reprocess", c.ReceiptHandler.ReprocessReceipt)
	}
}

func (c *Config) ReceiptItems() {
	items := c.App.Group("/api/v1/receipt-items")
	{
		items.Patch("/:id", c.ReceiptItemHandler.UpdateReceiptItem)
		items.Post("/bulk-update", c.ReceiptItemHandler.BulkUpdateReceiptItems)
	}
}

func (c *Config) Settings() {
	settings := c.App.Group("/api/v1/settings")
	{
		settings.Get("/processing-prompt", c.SettingHandler.GetProcessingPrompt)
		settings.Put("/processing-prompt", c.SettingHandler.UpdateProcessingPrompt)
	}

	c.App.Get("/api/v1/categories/style", c.SettingHandler.GetCategoryStyle)
}

func (c *Config) HealthRoute() {
	c.App.Get("/api/ping", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"message": "pong"})
	})

	c.App.Get("/api/v1/health/database", func(ctx *fiber.Ctx) error {
		sqlDB, err := c.DB.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return ctx.JSON(fiber.Map{"status": "healthy"})
	})
}
