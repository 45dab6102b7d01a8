package main

import (
	"context"
	"encoding/base64"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/gzizouseif24/xero-automation/config"
	"github.com/gzizouseif24/xero-automation/infrastructure/communication"
	"github.com/gzizouseif24/xero-automation/infrastructure/filesystem"
	"github.com/gzizouseif24/xero-automation/payroll"
	"github.com/gzizouseif24/xero-automation/store"
	"github.com/gzizouseif24/xero-automation/web/handlers/timesheet"
	"github.com/gzizouseif24/xero-automation/web/middlewares"
	v1 "github.com/gzizouseif24/xero-automation/xero/v1"
)

func main() {
	ctx := context.Background()

	settings, err := config.Load(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if err := settings.Validate(); err != nil {
		log.Fatal(err)
	}

	db, err := store.New(settings.Database.DSN())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	client := v1.NewXeroClient(settings.Xero.BaseURL, settings.Xero.AccessToken, settings.Xero.TenantID)

	var artifacts payroll.ArtifactWriter
	if settings.Artifacts.S3Bucket != "" {
		s3Artifacts, err := filesystem.NewS3Artifacts(ctx, settings.Artifacts.S3Bucket)
		if err != nil {
			log.Fatal(err)
		}
		artifacts = s3Artifacts
	} else {
		dir := settings.Artifacts.Dir
		if dir == "" {
			dir = "artifacts"
		}
		artifacts = filesystem.LocalArtifacts{Dir: dir}
	}

	var notifier timesheet.Notifier
	if settings.Slack.Token != "" {
		notifier = communication.NewSlack(settings.Slack.Token, settings.Slack.Channel)
	}

	jwtSecret, err := base64.StdEncoding.DecodeString(settings.Auth.JWTSecret)
	if err != nil {
		log.Fatal("Failed to decode JWT secret:", err)
	}

	r := gin.Default()
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	protected := r.Group("/api/payroll/v1.0")
	protected.Use(middlewares.Authentication(jwtSecret))
	{
		timesheet.Register(protected, timesheet.Deps{
			Store:     db,
			Xero:      client,
			Settings:  settings,
			Artifacts: artifacts,
			Notifier:  notifier,
		})
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8090"
	}
	r.Run(addr)
}
