package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"go-photo-qc/internal/cli"
	"go-photo-qc/internal/config"
	"go-photo-qc/internal/container"
	"go-photo-qc/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Reports go to stdout, logs to stderr
	logger.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "photoqc: %v\n", err)
		return 2
	}
	logger.SetLevel(getLogLevel())
	// The container also builds the HTTP handler; keep gin's route dump off stdout
	gin.SetMode(gin.ReleaseMode)

	c, err := container.NewContainer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "photoqc: %v\n", err)
		return 2
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(&cli.App{Service: c.Service(), Quality: c.Quality()})
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// getLogLevel keeps the CLI quiet unless LOG_LEVEL asks otherwise
func getLogLevel() string {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return level
	}
	return "warn"
}
