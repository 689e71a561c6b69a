package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/yourorg/credenciales/internal/audit"
	"github.com/yourorg/credenciales/internal/auth"
	"github.com/yourorg/credenciales/internal/cache"
	"github.com/yourorg/credenciales/internal/config"
	"github.com/yourorg/credenciales/internal/credential"
	appdb "github.com/yourorg/credenciales/internal/db"
	"github.com/yourorg/credenciales/internal/handlers"
	"github.com/yourorg/credenciales/internal/logging"
	"github.com/yourorg/credenciales/internal/middleware"
	"github.com/yourorg/credenciales/internal/models"
	"github.com/yourorg/credenciales/internal/notify"
	"github.com/yourorg/credenciales/internal/render"
	"github.com/yourorg/credenciales/internal/routes"
	"github.com/yourorg/credenciales/internal/solicitud"
	"github.com/yourorg/credenciales/internal/store"
	"github.com/yourorg/credenciales/internal/upload"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ============================================================================
	// DB CONNECTION
	// ============================================================================
	db, dialect := connect(ctx, cfg, logger)
	if db == nil {
		return
	}
	defer db.Close()

	// ============================================================================
	// SERVICIOS
	// ============================================================================
	hub := notify.NewHub(logger)
	go hub.Run(ctx)

	auditSvc := audit.NewService(store.NewAuditStore(db), logger)
	creds := credential.NewService(store.NewCredentialStore(db), auditSvc, hub, logger)
	sols := solicitud.NewService(store.NewSolicitudStore(db), creds, auditSvc, hub, logger)
	authSvc := auth.NewService(store.NewUserStore(db), auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL), logger)

	uploads, err := upload.NewStore(cfg.UploadDir, cfg.UploadBaseURL, cfg.UploadMaxBytes, logger)
	if err != nil {
		logger.Fatal("upload dir", zap.Error(err))
	}

	pdfCache := cache.New[[]byte](time.Hour, 10*time.Minute)
	defer pdfCache.Stop()
	if cfg.RegistroLine == "" {
		logger.Warn("CARD_REGISTRO_LINE vacío: las credenciales se imprimen sin fichero ni CUIT",
			zap.String("registro", render.DefaultRegistro))
	}
	layout := render.Layout{Registro: cfg.RegistroLine, AssetBase: cfg.BaseURL}
	pdf := render.NewCachedPDF(render.NewChromePrinter(cfg.ChromePath, cfg.PrintTimeout, logger), layout, pdfCache)

	// ============================================================================
	// HTTP
	// ============================================================================
	app := fiber.New(fiber.Config{
		AppName:      "credenciales " + version,
		ErrorHandler: handlers.ErrorHandler(logger),
		BodyLimit:    int(cfg.UploadMaxBytes) + 1<<20,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.AccessLog(logger))

	routes.Register(app, routes.Deps{
		Tokens:         authSvc.Tokens(),
		Health:         handlers.NewHealthHandler(db, hub, pdfCache, version),
		Status:         handlers.NewStatusHandler(db, logger, version),
		Auth:           handlers.NewAuthHandler(authSvc),
		Ministerial:    handlers.NewCredentialHandler(models.KindMinisterial, creds, pdf, logger),
		Capellania:     handlers.NewCredentialHandler(models.KindCapellania, creds, pdf, logger),
		Solicitudes:    handlers.NewSolicitudHandler(sols),
		Audit:          handlers.NewAuditHandler(auditSvc),
		Uploads:        handlers.NewUploadHandler(uploads),
		Notifications:  handlers.NewNotificationHandler(hub),
		UploadDir:      uploads.Dir(),
		APIRateLimit:   cfg.RateLimit,
		PrintRateLimit: cfg.PrintRateLimit,
	})

	// ============================================================================
	// GRACEFUL SHUTDOWN
	// ============================================================================
	go func() {
		<-ctx.Done()
		logger.Info("señal de terminación recibida, cerrando servidor")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Warn("error cerrando servidor", zap.Error(err))
		}
	}()

	logger.Info("servidor escuchando",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("db", string(dialect)))
	logger.Info("endpoints disponibles",
		zap.Strings("rutas", []string{
			"POST /api/auth/login",
			"GET  /api/credenciales-ministeriales",
			"GET  /api/credenciales-capellania",
			"GET  /api/credenciales-*/:id/imprimir.pdf",
			"POST /api/solicitudes-credenciales",
			"GET  /api/audit-logs",
			"WS   /ws/notificaciones",
		}))

	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
	logger.Info("servidor cerrado correctamente")
}

// connect reintenta cada 5s hasta que la base responde y el esquema existe,
// o hasta que llega una señal de terminación.
func connect(ctx context.Context, cfg config.Config, logger *zap.Logger) (*sql.DB, appdb.Dialect) {
	for {
		db, dialect, err := appdb.Connect(cfg.DB)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = db.PingContext(pingCtx)
			cancel()
			if err == nil {
				err = appdb.EnsureSchema(ctx, db, dialect, cfg.DB.SkipSchema, logger)
			}
			if err == nil {
				logger.Info("base de datos lista", zap.String("dialect", string(dialect)))
				return db, dialect
			}
			_ = db.Close()
		}
		logger.Warn("db no disponible, reintentando en 5s", zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ""
		case <-time.After(5 * time.Second):
		}
	}
}
