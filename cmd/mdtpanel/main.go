package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"raredx.dev/mdtpanel/common/id"
	"raredx.dev/mdtpanel/common/logger"
	"raredx.dev/mdtpanel/common/otel"
	"raredx.dev/mdtpanel/core/config"
	"raredx.dev/mdtpanel/internal/mdt"
	"raredx.dev/mdtpanel/internal/model"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the panel configuration document")
	inputPath := flag.String("input", "", "path to a JSON-encoded MainState to invoke; defaults to stdin")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.Info("otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.Info("otel disabled (no endpoint configured)")
	}

	slog.Info("mdtpanel starting", "env", cfg.Env, "service", cfg.OTel.ServiceName, "expert_groups", len(cfg.MultiExpertDiagnosisAgent))

	if err := id.Init(1); err != nil {
		slog.Error("failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	pipeline, err := mdt.BuildPipeline(cfg)
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	state, err := loadState(*inputPath, cfg)
	if err != nil {
		slog.Error("failed to load input state", "error", err)
		os.Exit(1)
	}

	out, err := pipeline.Invoke(ctx, state)
	if err != nil {
		slog.Error("invoke failed", "error", err)
		os.Exit(1)
	}

	if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
		slog.Error("failed to encode output state", "error", err)
		os.Exit(1)
	}

	if telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.Error("otel shutdown error", "error", err)
		}
	}
}

// loadState reads a MainState from inputPath (or stdin when empty),
// stamped with a fresh run id and the configured round budget. The MDT
// graph's own triage node seeds the expert pool on first entry.
func loadState(inputPath string, cfg config.Config) (model.MainState, error) {
	var src *os.File
	if inputPath == "" {
		src = os.Stdin
	} else {
		f, err := os.Open(inputPath)
		if err != nil {
			return model.MainState{}, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		src = f
	}

	state := model.NewMainState(id.NewRunID(), cfg.MDT.MaxRounds)
	if err := json.NewDecoder(src).Decode(&state); err != nil {
		return model.MainState{}, fmt.Errorf("decoding input state: %w", err)
	}

	return state, nil
}
