package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	awssession "github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/solfactory/cone-renderer/internal/logging"
)

const (
	Scale              = 2
	Dimensions         = 512
	RenderTimeout      = 20 * time.Second
	UploadTimeout      = 10 * time.Second
	TextureWaitTimeout = 5 * time.Second
)

// Initializes everything once.
func main() {
	cfg := loadConfig()
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	var uploader s3iface.S3API
	if cfg.S3Bucket != "" {
		s3Config := &aws.Config{
			Credentials:      credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, ""),
			Endpoint:         aws.String(cfg.S3Endpoint),
			Region:           aws.String(cfg.S3Region),
			S3ForcePathStyle: aws.Bool(true),
		}
		sess, err := awssession.NewSession(s3Config)
		if err != nil {
			log.Fatalf("Failed to create S3 session: %v", err)
		}
		uploader = s3.New(sess)
	} else {
		log.Printf("S3_BUCKET not set, previews are returned inline only")
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	server := NewServer(cfg, uploader, httpClient)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go server.sessions.Run(ctx, 0)

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: server.routes()}
	go func() {
		log.Printf("Starting server on %s", cfg.ServerAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), RenderTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	server.sessions.Shutdown()
	server.textures.Clear()
}
