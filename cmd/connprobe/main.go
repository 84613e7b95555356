package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"connprobe/internal/connector"
	"connprobe/internal/shared/config"
	"connprobe/internal/shared/logger"
	"connprobe/internal/shared/types"
)

// target 是固定的探测目标，只有测试会替换它
var target = connector.Default()

func main() {
	iniPath := filepath.Join("configs", "connprobe.ini")

	// 只有日志级别可配置，不读取环境变量；配置文件有问题也照常探测
	logConf := types.LogConf{Level: "warn"}
	if err := config.LoadLogConf(&logConf, iniPath); err != nil {
		// Use standard fmt before logger is initialized.
		fmt.Fprintf(os.Stderr, "Warning: ignoring config file '%s': %v\n", iniPath, err)
	}

	if err := logger.Init(logConf, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if _, err := connector.Run(context.Background(), target, os.Stdout); err != nil {
		logger.Fatal().Err(err).Str("target", target.Addr).Msg("Probe failed")
	}
}
