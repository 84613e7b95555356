package config

import (
	"fmt"
	"os"
	"strconv"

	"connprobe/internal/shared/types"
	"gopkg.in/ini.v1"
)

// LoadIni 把 ini 文件映射到 cfg 上。文件不存在时保留 cfg 中已有的默认值。
func LoadIni(cfg *types.Config, fileName string) error {
	iniFile, err := ini.LooseLoad(fileName)
	if err != nil {
		return fmt.Errorf("failed to load ini file: %w", err)
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return fmt.Errorf("failed to map ini file: %w", err)
	}
	applyEnv(cfg)
	return nil
}

// LoadLogConf 只读取 [log] 段，不读取环境变量。connprobe 只用这个入口。
func LoadLogConf(conf *types.LogConf, fileName string) error {
	iniFile, err := ini.LooseLoad(fileName)
	if err != nil {
		return fmt.Errorf("failed to load ini file: %w", err)
	}
	if err := iniFile.Section("log").MapTo(conf); err != nil {
		return fmt.Errorf("failed to map [log] section: %w", err)
	}
	return nil
}

func applyEnv(cfg *types.Config) {
	overrideFromEnvInt(&cfg.PeerConf.Port, "PEER_PORT")
	overrideFromEnvString(&cfg.LogConf.Level, "LOG_LEVEL")
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}

func overrideFromEnvString(target *string, envName string) {
	if envValue := os.Getenv(envName); envValue != "" {
		*target = envValue
	}
}
