package cmd

import (
	"github.com/vibast-solutions/ms-go-entitlements/app/factory"
	"github.com/vibast-solutions/ms-go-entitlements/config"
)

func configureLogging(cfg *config.Config) error {
	return factory.ConfigureLogging(cfg.Log.Level)
}
