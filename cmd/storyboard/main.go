package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"storyboarder/internal/logging"
)

func main() {
	var o options
	flag.StringVar(&o.briefPath, "brief", "", "path to the YAML brief")
	flag.StringVar(&o.outDir, "out", "out", "output directory")
	flag.StringVar(&o.selection, "select", "", "1-based idea numbers to script, comma separated (default: first idea)")
	flag.BoolVar(&o.images, "images", false, "generate every scene image")
	flag.BoolVar(&o.fake, "fake", false, "use the offline fake generator")
	flag.StringVar(&o.configPath, "config", "", "pipeline config file (default: $STORYBOARD_CONFIG)")
	flag.Parse()

	_ = godotenv.Load()
	logger := logging.FromEnv()
	if o.configPath == "" {
		o.configPath = os.Getenv("STORYBOARD_CONFIG")
	}
	if !o.fake {
		o.apiKey = os.Getenv("GEMINI_API_KEY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, logger); err != nil {
		logger.Error("storyboard run failed", "error", err)
		os.Exit(1)
	}
}
