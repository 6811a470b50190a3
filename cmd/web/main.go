package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"testdesk/internal/app"
	"testdesk/internal/db"
)

func main() {
	cfg := app.LoadConfig()

	dbConn, err := db.Open(context.Background(), cfg.DBConfig())
	if err != nil {
		log.Printf("database error: %v", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	r := app.NewRouter(cfg, dbConn)

	log.Printf("testdesk web listening on %s (env=%s, db=%s)", cfg.HTTPAddr, cfg.AppEnv, cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}
