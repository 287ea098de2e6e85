package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medbase/medbase/internal/config"
	"github.com/medbase/medbase/internal/domain/admin"
	"github.com/medbase/medbase/internal/domain/clinical"
	"github.com/medbase/medbase/internal/domain/donation"
	"github.com/medbase/medbase/internal/domain/identity"
	"github.com/medbase/medbase/internal/domain/inventory"
	"github.com/medbase/medbase/internal/domain/patient"
	"github.com/medbase/medbase/internal/domain/prescribing"
	"github.com/medbase/medbase/internal/domain/scheduling"
	"github.com/medbase/medbase/internal/platform/auth"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/httpapi"
	"github.com/medbase/medbase/internal/platform/middleware"
	"github.com/medbase/medbase/internal/platform/sequence"
)

const version = "1.0.0"

// serverPool is what the HTTP server needs from the database. A
// *pgxpool.Pool satisfies it.
type serverPool interface {
	db.Pool
	db.Pinger
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBRetryMaxAttempts)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := newServer(cfg, pool, logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer builds the echo instance with every middleware and route.
func newServer(cfg *config.Config, pool serverPool, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = httpapi.JSONSerializer{}
	e.HTTPErrorHandler = httpapi.NewErrorHandler(logger)

	// Display numbers
	numbers := sequence.NewGenerator(
		sequence.NewCounterPG(pool), pool,
		sequence.WithMaxAttempts(cfg.SequenceMaxAttempts),
	)

	// Identity
	users := identity.NewUserRepo(pool)
	doctors := identity.NewDoctorRepo(pool)
	tokens := auth.NewIssuer([]byte(cfg.SecretKey), cfg.AppName, cfg.AccessTokenTTL())
	identitySvc := identity.NewService(users, doctors, tokens)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	// Auth middleware
	jwtCfg := auth.JWTConfig{
		Issuer:     cfg.AppName,
		SigningKey: []byte(cfg.SecretKey),
		Skipper:    auth.AuthSkipper,
		Users:      identitySvc,
	}
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(jwtCfg))
	} else {
		e.Use(auth.JWTMiddleware(jwtCfg))
	}

	// Audit middleware
	e.Use(middleware.Audit(logger))

	// Service info and health checks
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"name":    cfg.AppName,
			"version": version,
		})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1", db.TxMiddleware(pool, logger))

	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)

	// Patients
	patients := patient.NewPatientRepo(pool)
	patientSvc := patient.NewService(patient.Repos{
		Patients:   patients,
		Allergies:  patient.NewAllergyRepo(pool),
		History:    patient.NewHistoryRepo(pool),
		VitalSigns: patient.NewVitalSignRepo(pool),
		Documents:  patient.NewDocumentRepo(pool),
	}, numbers)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	// Appointments and medical records
	appointments := scheduling.NewAppointmentRepo(pool)
	schedulingSvc := scheduling.NewService(appointments, patients, doctors, numbers)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(apiV1)

	records := clinical.NewRecordRepo(pool)
	clinicalSvc := clinical.NewService(records, patients, doctors, appointments, numbers)
	clinical.NewHandler(clinicalSvc).RegisterRoutes(apiV1)

	// Inventory
	categories := make(map[inventory.CategoryKind]inventory.CategoryRepository, len(inventory.CategoryKinds))
	for _, kind := range inventory.CategoryKinds {
		categories[kind] = inventory.NewCategoryRepo(pool, kind)
	}
	medicines := inventory.NewMedicineRepo(pool)
	equipment := inventory.NewEquipmentRepo(pool)
	devices := inventory.NewDeviceRepo(pool)
	inventorySvc := inventory.NewService(inventory.Repos{
		Categories:   categories,
		Medicines:    medicines,
		Equipment:    equipment,
		Devices:      devices,
		Transactions: inventory.NewTransactionRepo(pool),
	})
	inventory.NewHandler(inventorySvc).RegisterRoutes(apiV1)

	// Prescriptions
	prescribingSvc := prescribing.NewService(prescribing.Repos{
		Prescriptions: prescribing.NewPrescriptionRepo(pool),
		Items:         prescribing.NewItemRepo(pool),
		Devices:       prescribing.NewDeviceRepo(pool),
	}, prescribing.Refs{
		Patients:     patients,
		Doctors:      doctors,
		Appointments: appointments,
		Records:      records,
		Medicines:    medicines,
		Devices:      devices,
	}, numbers)
	prescribing.NewHandler(prescribingSvc).RegisterRoutes(apiV1)

	// Donations
	donationSvc := donation.NewService(donation.Repos{
		Donors:         donation.NewDonorRepo(pool),
		Donations:      donation.NewDonationRepo(pool),
		MedicineItems:  donation.NewMedicineItemRepo(pool),
		EquipmentItems: donation.NewEquipmentItemRepo(pool),
		DeviceItems:    donation.NewDeviceItemRepo(pool),
	}, donation.Refs{
		Medicines: medicines,
		Equipment: equipment,
		Devices:   devices,
	}, numbers)
	donation.NewHandler(donationSvc).RegisterRoutes(apiV1)

	// System settings
	admin.NewHandler(admin.NewService(admin.NewSettingRepo(pool))).RegisterRoutes(apiV1)

	return e
}
