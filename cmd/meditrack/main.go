package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"meditrack/backend/internal/config"
	"meditrack/backend/internal/domain"
	"meditrack/backend/internal/ids"
	"meditrack/backend/internal/seed"
	"meditrack/backend/internal/service/appointments"
	"meditrack/backend/internal/service/billing"
	"meditrack/backend/internal/service/doctors"
	"meditrack/backend/internal/service/patients"
	"meditrack/backend/internal/store"
	"meditrack/backend/internal/store/csvfile"
	"meditrack/backend/internal/transport/console"
)

const version = "1.0.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "meditrack",
		Short:         "Clinic practice management console",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			skipLoad, _ := cmd.Flags().GetBool("skip-load")
			return run(skipLoad)
		},
	}
	cmd.Flags().Bool("skip-load", false, "start with empty stores instead of loading saved data")
	cmd.AddCommand(seedCmd())
	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate sample data and save it to the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			counts := seed.DefaultCounts()
			counts.Patients, _ = cmd.Flags().GetInt("patients")
			counts.Doctors, _ = cmd.Flags().GetInt("doctors")
			counts.Appointments, _ = cmd.Flags().GetInt("appointments")
			randSeed, _ := cmd.Flags().GetUint64("seed")
			return runSeed(counts, randSeed)
		},
	}
	cmd.Flags().Int("patients", seed.DefaultCounts().Patients, "number of patients to generate")
	cmd.Flags().Int("doctors", seed.DefaultCounts().Doctors, "number of doctors to generate")
	cmd.Flags().Int("appointments", seed.DefaultCounts().Appointments, "number of appointments to book")
	cmd.Flags().Uint64("seed", uint64(time.Now().UnixNano()), "random seed for reproducible data")
	return cmd
}

type app struct {
	cfg      config.Config
	log      *slog.Logger
	stores   csvfile.Stores
	alloc    *ids.Prefixed
	repo     *csvfile.Repository
	services console.Services
}

func newApp(loadData bool) (*app, error) {
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "meditrack"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "meditrack"),
	)
	slog.SetDefault(log)

	stores := csvfile.Stores{
		Patients:     store.New[domain.Patient]("patients"),
		Doctors:      store.New[domain.Doctor]("doctors"),
		Appointments: store.New[domain.Appointment]("appointments"),
		Bills:        store.New[domain.Bill]("bills"),
	}
	alloc := ids.NewPrefixed()

	repo, err := csvfile.NewRepository(cfg.DataDir, csvfile.FileNames{
		Patients:     cfg.PatientsFile,
		Doctors:      cfg.DoctorsFile,
		Appointments: cfg.AppointmentsFile,
		Bills:        cfg.BillsFile,
	}, log)
	if err != nil {
		return nil, err
	}

	if loadData {
		if err := repo.LoadAll(stores, alloc); err != nil {
			return nil, fmt.Errorf("load data: %w", err)
		}
	}

	services := console.Services{
		Patients: patients.NewService(stores.Patients, alloc, log),
		Doctors:  doctors.NewService(stores.Doctors, alloc, log),
		Appointments: appointments.NewService(
			stores.Appointments, stores.Doctors, stores.Patients, alloc,
			appointments.Config{
				ClinicStartHour:        cfg.ClinicStartHour,
				ClinicEndHour:          cfg.ClinicEndHour,
				DefaultDurationMinutes: cfg.DefaultDuration,
				MaxDurationMinutes:     cfg.MaxDuration,
				PastHorizon:            cfg.PastHorizon,
			}, log),
		Billing: billing.NewService(stores.Bills, stores.Appointments, stores.Patients, alloc, log),
	}

	return &app{
		cfg:      cfg,
		log:      log,
		stores:   stores,
		alloc:    alloc,
		repo:     repo,
		services: services,
	}, nil
}

func run(skipLoad bool) error {
	a, err := newApp(!skipLoad)
	if err != nil {
		slog.Error("startup failed", slog.Any("err", err))
		return err
	}
	a.log.Info("starting",
		slog.String("data_dir", a.cfg.DataDir),
		slog.String("log_level", a.cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	menu := console.NewMenu(os.Stdin, os.Stdout, a.services, a.repo, a.log)
	return menu.Run(ctx)
}

func runSeed(counts seed.Counts, randSeed uint64) error {
	a, err := newApp(true)
	if err != nil {
		slog.Error("startup failed", slog.Any("err", err))
		return err
	}

	err = seed.Run(context.Background(), seed.Services{
		Patients:     a.services.Patients,
		Doctors:      a.services.Doctors,
		Appointments: a.services.Appointments,
	}, counts, randSeed, a.log)
	if err != nil {
		a.log.Error("seed failed", slog.Any("err", err))
		return err
	}
	return a.repo.SaveAll(a.stores)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
