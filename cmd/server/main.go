package main

import (
	"context"
	"strings"
	"time"

	"aligner-lab-backend/internal/audit"
	"aligner-lab-backend/internal/auth"
	"aligner-lab-backend/internal/caselock"
	"aligner-lab-backend/internal/catalog"
	"aligner-lab-backend/internal/config"
	"aligner-lab-backend/internal/dashboard"
	"aligner-lab-backend/internal/database"
	"aligner-lab-backend/internal/lab"
	"aligner-lab-backend/internal/middlewares"
	"aligner-lab-backend/internal/models"
	"aligner-lab-backend/internal/production"
	"aligner-lab-backend/internal/store/gormstore"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	logger := config.GetLogger()
	database.Init(cfg)

	// catálogo de tipos de produto
	if f, err := catalog.Load(cfg.CatalogPath); err != nil {
		logger.WithError(err).Warn("catalog.yaml não carregado; usando produtos já cadastrados")
	} else if err := catalog.Seed(database.DB, f); err != nil {
		logger.Fatalf("Erro ao gravar catálogo: %v", err)
	}

	var locker production.Locker = caselock.NewLocal()
	if cfg.RedisAddress != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := caselock.Connect(ctx, cfg.RedisAddress)
		cancel()
		if err != nil {
			logger.Fatalf("Redis indisponível em %s: %v", cfg.RedisAddress, err)
		}
		locker = caselock.NewRedis(client, cfg.CaseLockTTL, logger)
	}

	svc := production.NewService(
		gormstore.New(database.DB),
		catalog.NewDB(database.DB),
		production.WithLocker(locker),
		production.WithLogger(logger),
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(lab.Result{OK: false, Message: e.Message})
			}
			config.LogError(logger, "server", "ErrorHandler", c.Path(), nil, err)
			return c.Status(fiber.StatusInternalServerError).JSON(lab.Result{
				OK:      false,
				Message: "Erro inesperado no servidor",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(middlewares.RequestID(), middlewares.AccessLog(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(corsOrigins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + middlewares.RequestIDHeader,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: middlewares.RequestIDHeader,
	}))

	api := app.Group("/api")

	// Públicas
	api.Post("/auth/register-admin", auth.RegisterAdminHandler())
	api.Post("/auth/login", auth.LoginHandler(cfg))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))
	protected.Get("/auth/me", auth.MeHandler())

	// Somente admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))
	adminRoutes.Post("/users", auth.CreateUserHandler())
	adminRoutes.Post("/products", catalog.CreateProductHandler())
	adminRoutes.Delete("/work-items/:id", lab.DeleteWorkItemHandler(svc))
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler())

	// Laboratório (admin e lab); clínica só consulta e registra dados do paciente
	labOnly := auth.RequireRole(models.RoleAdmin, models.RoleLab)

	protected.Post("/cases", labOnly, lab.CreateCaseHandler(svc))
	protected.Post("/cases/:id/bank/seed", labOnly, lab.SeedBankHandler(svc))
	protected.Post("/cases/:id/delivery-lots", labOnly, lab.RegisterDeliveryLotHandler(svc))
	protected.Post("/cases/:id/rework", labOnly, lab.ReworkTrayHandler(svc))

	protected.Post("/work-items", labOnly, lab.CreateWorkItemHandler(svc))
	protected.Post("/work-items/:id/transition", labOnly, lab.TransitionWorkItemHandler(svc))
	protected.Post("/work-items/:id/sync", labOnly, lab.SyncWorkItemHandler(svc))
	protected.Get("/dashboard/board", labOnly, dashboard.BoardHandler(svc))

	// Laboratório e clínica
	protected.Get("/products", catalog.ListProductsHandler())
	protected.Get("/cases", lab.ListCasesHandler(svc))
	protected.Get("/cases/:id", lab.GetCaseHandler(svc))
	protected.Get("/cases/:id/bank", lab.BankSummaryHandler(svc))
	protected.Get("/cases/:id/replenishment", lab.ReplenishmentHandler(svc))
	protected.Put("/cases/:id/installation", lab.RecordInstallationHandler(svc))
	protected.Post("/cases/:id/patient-deliveries", lab.RecordPatientDeliveryHandler(svc))
	protected.Post("/cases/:id/actual-changes", lab.RecordActualChangeHandler(svc))
	protected.Get("/work-items", lab.ListWorkItemsHandler(svc))
	protected.Get("/work-items/:id", lab.GetWorkItemHandler(svc))
	protected.Get("/dashboard/replenishment-alerts", dashboard.ReplenishmentAlertsHandler(svc))

	logger.Infof("Servidor ouvindo na porta %s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Fatal(err)
	}
}
