package config

import (
	"fmt"
	"os"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// GatewayCredentials holds one payment provider's credentials for one
// environment (sandbox or production). Values come from PaymentConfig rows
// when present and fall back to env vars.
type GatewayCredentials struct {
	Provider    string
	Environment string
	AppID       string
	LocationID  string
	ClientID    string
	Secret      string
	AccessToken string
}

func SquareCredentials() GatewayCredentials {
	return GatewayCredentials{
		Provider:    "square",
		Environment: getenvDefault("SQUARE_ENVIRONMENT", "sandbox"),
		AppID:       os.Getenv("SQUARE_APP_ID"),
		LocationID:  os.Getenv("SQUARE_LOCATION_ID"),
		AccessToken: os.Getenv("SQUARE_ACCESS_TOKEN"),
	}
}

func CashAppCredentials() GatewayCredentials {
	return GatewayCredentials{
		Provider:    "cashapp",
		Environment: getenvDefault("CASHAPP_ENVIRONMENT", "sandbox"),
		ClientID:    os.Getenv("CASHAPP_CLIENT_ID"),
	}
}

func PayPalCredentials() GatewayCredentials {
	return GatewayCredentials{
		Provider:    "paypal",
		Environment: getenvDefault("PAYPAL_ENVIRONMENT", "sandbox"),
		ClientID:    os.Getenv("PAYPAL_CLIENT_ID"),
		Secret:      os.Getenv("PAYPAL_SECRET"),
	}
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
