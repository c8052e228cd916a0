package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/fitscan/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "FitScan server URL (e.g. https://fitscan.tail1234.ts.net)")
	deviceID := flag.String("device", os.Getenv("FITSCAN_DEVICE_ID"), "device ID issued by POST /api/v1/devices")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fitscan-mcp", Version)
		return
	}

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: fitscan-mcp -server <URL> [-device <ID>]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// stdout carries the protocol; log to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	client := mcp.NewHTTPClient(*serverURL, *deviceID)
	s := mcp.New(client, Version, log)

	log.Info("fitscan-mcp serving stdio", "server", *serverURL)
	err := server.ServeStdio(s, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return mcp.WithUserID(ctx, *deviceID)
	}))
	if err != nil {
		log.Error("stdio server failed", "error", err)
		os.Exit(1)
	}
}
