package commands

import (
	"os"
	"time"

	"github.com/fourkites/rca-core/internal/dataadapters"
	"github.com/fourkites/rca-core/internal/oracle"
	"github.com/fourkites/rca-core/internal/rcacore"
	"github.com/fourkites/rca-core/internal/rcaconfig"
)

func buildOrchestrator(cfgPath string) (*rcacore.Orchestrator, rcaconfig.Config, error) {
	cfg, err := rcaconfig.Load(cfgPath)
	if err != nil {
		return nil, rcaconfig.Config{}, err
	}

	registry := rcacore.NewRegistry(func(capability string) time.Duration {
		return cfg.ProbeDeadline(capability)
	})
	dataadapters.RegisterAll(registry, dataadapters.Endpoints{
		PlatformBaseURL:  os.Getenv("RCA_PLATFORM_URL"),
		WarehouseBaseURL: os.Getenv("RCA_WAREHOUSE_URL"),
		NetworkBaseURL:   os.Getenv("RCA_NETWORK_URL"),
		CarrierBaseURL:   os.Getenv("RCA_CARRIER_URL"),
		LogsBaseURL:      os.Getenv("RCA_LOGS_URL"),
		KVBaseURL:        os.Getenv("RCA_KV_URL"),
	}, cfg.ProbeDeadline)

	var reasoner rcacore.Oracle
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		reasoner = oracle.NewAnthropicOracle(os.Getenv("ANTHROPIC_API_KEY"), cfg.AnthropicModel)
	} else {
		reasoner = oracle.NewMockOracle()
	}

	orch := rcacore.NewOrchestrator(registry, rcacore.StandardDescriptors(), reasoner, rcacore.OrchestratorConfig{
		MaxParallel:             cfg.MaxParallel,
		MaxChildDepth:           cfg.MaxChildDepth,
		MaxIterationsPerAgent:   cfg.MaxIterationsPerAgent,
		HighConfidence:          cfg.HighConfidence,
		MedConfidence:           cfg.MedConfidence,
		LowConfidence:           cfg.LowConfidence,
		HighRoute:               0.85,
		MedRoute:                0.60,
		HeartbeatInterval:       time.Duration(cfg.HeartbeatIntervalMS) * time.Millisecond,
		InvestigationDeadline:   time.Duration(cfg.InvestigationDeadlineMS) * time.Millisecond,
		SubInvestigatorDeadline: time.Duration(cfg.SubInvestigatorDeadlineMS) * time.Millisecond,
	})
	return orch, cfg, nil
}
