package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/JosephAyo/bibliotheque-e-backend/internal/library/books"
	"github.com/JosephAyo/bibliotheque-e-backend/internal/library/circulation"
	"github.com/JosephAyo/bibliotheque-e-backend/internal/library/reminders"
	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/auth"
	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/db"
	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/mail"
)

func main() {
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	log.Printf("[INFO] mode:%s\n", cfg.Mode)
	if cfg.Mode != "dev" && cfg.Mode != "release" {
		fmt.Println("Usage: set mode to dev or release in config/config.yaml")
		return
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	secret := []byte(cfg.Auth.Secret)
	tokenTTL := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour

	circSvc, err := circulation.NewService(conn, cfg.Circulation)
	if err != nil {
		log.Fatal(err)
	}

	api := r.Group("/api/v1")
	auth.RegisterRoutes(api, auth.NewService(conn, secret, tokenTTL))
	books.RegisterRoutes(api, books.NewService(conn), secret)
	circulation.RegisterRoutes(api, circSvc, secret)

	// Reminder sweep shares its classifier with the circulation listings.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()

	notifier, err := mail.New(cfg.SMTP)
	if err != nil {
		log.Fatal(err)
	}
	dispatcher := reminders.NewDispatcher(
		circulation.NewStore(conn),
		notifier,
		circSvc.Classifier(),
		time.Duration(cfg.Reminder.SweepIntervalMinutes)*time.Minute,
	)
	reminders.RegisterRoutes(api, dispatcher, secret)
	if cfg.Reminder.Enabled {
		go dispatcher.Run(sweepCtx)
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		log.Printf("[INFO] listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown: stop the sweep, then drain HTTP.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
