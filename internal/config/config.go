package config

import (
	"github.com/spf13/viper"

	"github.com/Kilat-Pet-Delivery/service-reservation/internal/application"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/config"
)

// ServiceConfig holds all configuration for the reservation service.
type ServiceConfig struct {
	Port          string
	AppEnv        string
	DBConfig      config.DatabaseConfig
	JWTConfig     config.JWTConfig
	KafkaConfig   config.KafkaConfig
	TracingConfig config.TracingConfig
	BookingPolicy application.BookingPolicy
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("RESERVATION")
	if err != nil {
		return nil, err
	}
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *ServiceConfig {
	defaults := application.DefaultBookingPolicy()
	v.SetDefault("DB_NAME", "reservation")
	v.SetDefault("BOOKING_REQUIRE_FUTURE_START", defaults.RequireFutureStart)
	v.SetDefault("BOOKING_BLOCK_ON_WAITING", defaults.BlockOnWaiting)
	v.SetDefault("BOOKING_CANCEL_EXPIRED_ON_DECIDE", defaults.CancelExpiredOnDecide)

	return &ServiceConfig{
		Port:          config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:        config.GetAppEnv(v),
		DBConfig:      config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:     config.LoadJWTConfig(v),
		KafkaConfig:   config.LoadKafkaConfig(v),
		TracingConfig: config.LoadTracingConfig(v),
		BookingPolicy: application.BookingPolicy{
			RequireFutureStart:    v.GetBool("BOOKING_REQUIRE_FUTURE_START"),
			BlockOnWaiting:        v.GetBool("BOOKING_BLOCK_ON_WAITING"),
			CancelExpiredOnDecide: v.GetBool("BOOKING_CANCEL_EXPIRED_ON_DECIDE"),
		},
	}
}
