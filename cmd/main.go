package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"skillgate/infrastructure"
	"skillgate/infrastructure/ats"
	"skillgate/interfaces"
)

func main() {
	// Load .env
	_ = godotenv.Load()

	logger, err := infrastructure.NewLogger()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Connect DB
	db := infrastructure.NewMySQLConnection()

	// Connect RabbitMQ
	rmq := infrastructure.NewRabbitMQ()

	// Email worker: consumes queued invitations and sends them out.
	// Delivery is best-effort; the invitation row stays the source of truth.
	mailer := infrastructure.NewMailer(logger)
	rmq.ConsumeInviteEmails(func(job infrastructure.InviteEmailJob) {
		if err := mailer.SendInvite(job); err != nil {
			logger.Error("invite email delivery failed",
				zap.Uint("invitation_id", job.InvitationID),
				zap.Error(err))
		}
	})

	// Setup Gin router
	router := gin.Default()
	interfaces.NewHTTPHandler(router, &interfaces.Handler{
		DB:       db,
		Adapters: ats.NewFactory(logger),
		Queue:    rmq,
		Scorer:   infrastructure.NewScorer(),
		Logger:   logger,
		BaseURL:  os.Getenv("BASE_URL"),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server running on http://localhost:%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
