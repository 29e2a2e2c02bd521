// Command initdb drops and recreates the habit tables. All data is lost.
package main

import (
	"github.com/lattivo/habits-api/internal/config"
	"github.com/lattivo/habits-api/internal/database"
	"github.com/lattivo/habits-api/internal/logging"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("connect", zap.Error(err))
	}
	if err := database.Reset(db); err != nil {
		log.Fatal("reset schema", zap.Error(err))
	}
	log.Info("schema recreated", zap.String("database", db.Dialector.Name()))
}
