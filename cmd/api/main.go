// @title                       CFDI API
// @version                     1.0
// @description                 Emisión, timbrado, cancelación y consulta de CFDI 4.0.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/cfdi-api/docs"
	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/domain/repository"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/cfdi-api/internal/infrastructure/pdf"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/postgres"
	infrasat "github.com/jhoicas/cfdi-api/internal/infrastructure/sat"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/cfdi-api/internal/interfaces/http"
	"github.com/jhoicas/cfdi-api/pkg/config"
	"github.com/jhoicas/cfdi-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	tenants, err := config.LoadTenants(cfg.TenantsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar emisores")
	}

	ctx := context.Background()

	var (
		invoiceRepo repository.InvoiceRepository
		issuerRepo  repository.IssuerRepository
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		invoiceRepo = memory.NewInvoiceRepository()
		issuerRepo = memory.NewIssuerRepository()
		log.Warn().Msg("almacenamiento en memoria: los comprobantes se pierden al reiniciar")
	default:
		if err := postgres.Migrate(cfg.DB.ConnectionString(), log); err != nil {
			log.Fatal().Err(err).Msg("migraciones PostgreSQL")
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		invoiceRepo = postgres.NewInvoiceRepository(pool)
		issuerRepo = postgres.NewIssuerRepository(pool)
	}

	// PAC local: sello por digesto salvo que haya CSD global configurado
	var defaultSealer infrasat.Sealer
	if cfg.PAC.CertPath != "" {
		defaultSealer = mustSealer(cfg.PAC.CertPath, cfg.PAC.CertKeyPath, cfg.PAC.CertPassword, log)
	}
	pac := infrasat.NewLocalPAC(infrasat.PACConfig{
		ProviderRFC:          cfg.PAC.RFC,
		SATCertificateNumber: cfg.PAC.CertificateNumber,
		SATSealKey:           cfg.PAC.SealKey,
		Latency:              cfg.PAC.Latency,
	}, defaultSealer)

	for _, t := range tenants {
		issuer := &entity.Issuer{
			TenantID:      t.ID,
			RFC:           t.RFC,
			Name:          t.Name,
			TaxRegime:     t.TaxRegime,
			PostalCode:    t.PostalCode,
			DefaultSeries: t.DefaultSeries,
		}
		if err := issuerRepo.Save(ctx, issuer); err != nil {
			log.Fatal().Err(err).Str("tenant", t.ID).Msg("registrar emisor")
		}
		if t.CertPath != "" {
			pac.RegisterIssuer(t.RFC, mustSealer(t.CertPath, t.KeyPath, t.CertPassword, log))
		}
		log.Info().Str("tenant", t.ID).Str("rfc", t.RFC).Bool("csd", t.CertPath != "").Msg("emisor registrado")
	}

	// Archivo del XML timbrado: S3 si hay bucket, memoria en otro caso
	var archive billing.DocumentArchive
	if cfg.Storage.Bucket != "" {
		s3Archive, err := storage.NewS3Archive(cfg.Storage, log)
		if err != nil {
			log.Fatal().Err(err).Msg("cliente S3")
		}
		if err := s3Archive.EnsureBucket(ctx); err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.Storage.Bucket).Msg("bucket S3")
		}
		archive = s3Archive
	} else {
		archive = storage.NewMemoryArchive()
	}

	invoiceUC := billing.NewInvoiceUseCase(
		invoiceRepo, issuerRepo, pac, archive, infrapdf.NewMarotoPDFGenerator(),
		billing.InvoiceConfig{CertifyTimeout: cfg.PAC.Timeout},
		log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.PAC.Timeout + 5*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "CFDI API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		InvoiceUC: invoiceUC,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func mustSealer(certPath, keyPath, password string, log *logger.Logger) infrasat.Sealer {
	cert, err := infrasat.LoadCertificate(certPath, keyPath, password)
	if err != nil {
		log.Fatal().Err(err).Str("cert", certPath).Msg("cargar CSD")
	}
	sealer, err := infrasat.NewRSASealer(cert)
	if err != nil {
		log.Fatal().Err(err).Str("cert", certPath).Msg("sellador CSD")
	}
	return sealer
}
