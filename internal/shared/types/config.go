package types

// LogConf contains logging specific configuration
type LogConf struct {
	Level string `ini:"level"`
}

// PeerConf 包含 peer 服务端的监听配置
type PeerConf struct {
	Host           string `ini:"host"`
	Port           int    `ini:"port"`
	MaxConnections int    `ini:"maxConnections"` // 同时在线的会话上限
	MaxSessions    int    `ini:"maxSessions"`    // 累计接受的连接数，用完后退出；0 表示不限
	BufferSize     int    `ini:"bufferSize"`
}

// Config 是统一配置结构体。connector 的目标地址不在这里，它是固定常量。
type Config struct {
	LogConf  `ini:"log"`
	PeerConf `ini:"peer"`
}

// DefaultConfig returns the values used when no ini file is present.
func DefaultConfig() *Config {
	return &Config{
		LogConf: LogConf{Level: "info"},
		PeerConf: PeerConf{
			Host:           "0.0.0.0",
			Port:           80,
			MaxConnections: 32,
			MaxSessions:    32,
			BufferSize:     1024,
		},
	}
}
