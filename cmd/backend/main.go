package main

import (
	"context"

	"k8s.io/klog/v2"

	"github.com/sdghub/backend/cmd/backend/helper"
)

func main() {
	configInit := helper.NewConfigInitializer()
	backendConfig := configInit.GetBackendConfig()

	if err := configInit.LoadDebugEnvironment(); err != nil {
		klog.Fatalf("Failed to load env: %s", err)
	}

	registerConfig, err := configInit.InitializeRegisterConfig(context.Background())
	if err != nil {
		klog.Fatalf("Failed to register config: %s\n", err)
	}

	reminder := configInit.NewReminder(registerConfig.Store)
	if err := reminder.Start(); err != nil {
		klog.Fatalf("Failed to start reminder: %s", err)
	}
	defer reminder.Stop()

	serverRunner := helper.NewServerRunner(backendConfig)
	serverRunner.StartMetricsServer()
	serverRunner.StartServer(registerConfig)
}
