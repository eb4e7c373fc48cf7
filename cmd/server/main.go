package main

import (
	"log"

	"github.com/mediagrab/cloud-media-fetcher/internal/config"
	"github.com/mediagrab/cloud-media-fetcher/internal/server"
	"github.com/mediagrab/cloud-media-fetcher/pkg/db/aws"
	"github.com/mediagrab/cloud-media-fetcher/pkg/logger"
)

func main() {
	log.Println("Starting server")
	configFile := "config.yml"
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	s3Client, presignClient, err := aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		appLogger.Fatalf("could not create s3 client: %s", err)
	}
	uploader := aws.NewUploader(s3Client, cfg.S3.UploadPartSizeMB, cfg.S3.UploadConcurrency)

	s := server.NewServer(cfg, s3Client, presignClient, uploader, appLogger)
	if err = s.Run(); err != nil {
		appLogger.Fatalf("could not start server: %s", err)
	}
}
