package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DataDir          string
	PatientsFile     string
	DoctorsFile      string
	AppointmentsFile string
	BillsFile        string

	ClinicStartHour int
	ClinicEndHour   int
	DefaultDuration int
	MaxDuration     int
	PastHorizon     time.Duration

	LogLevel string
}

func Load() (Config, error) {
	// A local .env is a convenience for development; absence is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MEDITRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.patients_file", "patients.csv")
	v.SetDefault("data.doctors_file", "doctors.csv")
	v.SetDefault("data.appointments_file", "appointments.csv")
	v.SetDefault("data.bills_file", "bills.csv")
	v.SetDefault("clinic.start_hour", 9)
	v.SetDefault("clinic.end_hour", 18)
	v.SetDefault("clinic.default_duration_minutes", 30)
	v.SetDefault("clinic.max_duration_minutes", 480)
	v.SetDefault("clinic.past_horizon", "24h")
	v.SetDefault("log.level", "info")

	_ = v.BindEnv("data.dir", "MEDITRACK_DATA_DIR", "DATA_DIR")
	_ = v.BindEnv("data.patients_file", "MEDITRACK_DATA_PATIENTS_FILE")
	_ = v.BindEnv("data.doctors_file", "MEDITRACK_DATA_DOCTORS_FILE")
	_ = v.BindEnv("data.appointments_file", "MEDITRACK_DATA_APPOINTMENTS_FILE")
	_ = v.BindEnv("data.bills_file", "MEDITRACK_DATA_BILLS_FILE")
	_ = v.BindEnv("clinic.start_hour", "MEDITRACK_CLINIC_START_HOUR")
	_ = v.BindEnv("clinic.end_hour", "MEDITRACK_CLINIC_END_HOUR")
	_ = v.BindEnv("clinic.default_duration_minutes", "MEDITRACK_CLINIC_DEFAULT_DURATION_MINUTES")
	_ = v.BindEnv("clinic.max_duration_minutes", "MEDITRACK_CLINIC_MAX_DURATION_MINUTES")
	_ = v.BindEnv("clinic.past_horizon", "MEDITRACK_CLINIC_PAST_HORIZON")
	_ = v.BindEnv("log.level", "MEDITRACK_LOG_LEVEL", "LOG_LEVEL")

	pastHorizon, err := time.ParseDuration(v.GetString("clinic.past_horizon"))
	if err != nil {
		return Config{}, fmt.Errorf("clinic.past_horizon: %w", err)
	}

	cfg := Config{
		DataDir:          strings.TrimSpace(v.GetString("data.dir")),
		PatientsFile:     v.GetString("data.patients_file"),
		DoctorsFile:      v.GetString("data.doctors_file"),
		AppointmentsFile: v.GetString("data.appointments_file"),
		BillsFile:        v.GetString("data.bills_file"),
		ClinicStartHour:  v.GetInt("clinic.start_hour"),
		ClinicEndHour:    v.GetInt("clinic.end_hour"),
		DefaultDuration:  v.GetInt("clinic.default_duration_minutes"),
		MaxDuration:      v.GetInt("clinic.max_duration_minutes"),
		PastHorizon:      pastHorizon,
		LogLevel:         v.GetString("log.level"),
	}

	if cfg.ClinicStartHour < 0 || cfg.ClinicEndHour > 24 || cfg.ClinicStartHour >= cfg.ClinicEndHour {
		return Config{}, fmt.Errorf("clinic hours %d-%d are not a valid range", cfg.ClinicStartHour, cfg.ClinicEndHour)
	}
	if cfg.DefaultDuration <= 0 || cfg.DefaultDuration > cfg.MaxDuration {
		return Config{}, fmt.Errorf("default duration %dm must be positive and within the %dm cap", cfg.DefaultDuration, cfg.MaxDuration)
	}
	return cfg, nil
}
