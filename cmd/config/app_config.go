package config

import (
	"Harina-Web-Backend/internal/api/handlers"
	"Harina-Web-Backend/internal/api/routes"
	"Harina-Web-Backend/internal/middleware"
	"Harina-Web-Backend/internal/utils"
	"Harina-Web-Backend/internal/utils/storage"
	"Harina-Web-Backend/pkg/extraction"
	"Harina-Web-Backend/pkg/receipt"
	"Harina-Web-Backend/pkg/receiptitem"
	"Harina-Web-Backend/pkg/setting"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
		BodyLimit:         20 * 1024 * 1024,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Tokyo",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()

	// Repository
	receiptRepository := receipt.NewReceiptRepository(db)
	receiptItemRepository := receiptitem.NewReceiptItemRepository(db)
	settingRepository := setting.NewSettingRepository(db)

	// Service
	harinaClient := extraction.NewHarinaClient()
	settingService := setting.NewSettingService(settingRepository)
	receiptService := receipt.NewReceiptService(receiptRepository, harinaClient, settingService, s3)
	receiptItemService := receiptitem.NewReceiptItemService(receiptItemRepository)

	// Handler
	receiptHandler := handlers.NewReceiptHandler(receiptService, validator)
	receiptItemHandler := handlers.NewReceiptItemHandler(receiptItemService, validator)
	settingHandler := handlers.NewSettingHandler(settingService)

	// routes
	routesConfig := routes.Config{
		App:                app,
		ReceiptHandler:     receiptHandler,
		ReceiptItemHandler: receiptItemHandler,
		SettingHandler:     settingHandler,
		Middleware:         middlewares,
		DB:                 db,
	}
	routesConfig.Setup()
	return app, nil
}
