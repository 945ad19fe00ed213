package conf

import (
	"fmt"
	"time"
)

type Bootstrap struct {
	Server  *Server  `yaml:"server" json:"server"`
	Data    *Data    `yaml:"data" json:"data"`
	PayGate *PayGate `yaml:"pay_gate" json:"pay_gate"`
	Sweeper *Sweeper `yaml:"sweeper" json:"sweeper"`
	Log     *Log     `yaml:"log" json:"log"`
}

type Server struct {
	Http struct {
		Addr    string `yaml:"addr" json:"addr"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"http" json:"http"`
}

type Data struct {
	Database struct {
		Driver string `yaml:"driver" json:"driver"`
		Source string `yaml:"source" json:"source"`
	} `yaml:"database" json:"database"`
	Redis struct {
		Addr         string `yaml:"addr" json:"addr"`
		Password     string `yaml:"password" json:"password"`
		Db           int    `yaml:"db" json:"db"`
		ReadTimeout  string `yaml:"read_timeout" json:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout" json:"write_timeout"`
	} `yaml:"redis" json:"redis"`
	Rocketmq *Rocketmq `yaml:"rocketmq" json:"rocketmq"`
}

// Rocketmq 实时通知事件投递配置（未启用时事件仅记日志）
type Rocketmq struct {
	Enabled     bool     `yaml:"enabled" json:"enabled"`
	NameServers []string `yaml:"name_servers" json:"name_servers"`
	Topic       string   `yaml:"topic" json:"topic"`
	GroupName   string   `yaml:"group_name" json:"group_name"`
	RetryTimes  int      `yaml:"retry_times" json:"retry_times"`
}

// PayGate 支付网关配置
type PayGate struct {
	BaseURL    string `yaml:"base_url" json:"base_url"`
	MerchantID string `yaml:"merchant_id" json:"merchant_id"`
	APIKey     string `yaml:"api_key" json:"api_key"`
	// APISecret 用于 webhook 签名校验，禁止写入日志
	APISecret string `yaml:"api_secret" json:"api_secret"`
	Timeout   string `yaml:"timeout" json:"timeout"`
}

// Sweeper 过期订单清扫配置
type Sweeper struct {
	// Interval 清扫周期，默认 60s
	Interval string `yaml:"interval" json:"interval"`
	// PendingTimeout 待支付订单超时时长，默认 10m
	PendingTimeout string `yaml:"pending_timeout" json:"pending_timeout"`
	// BatchLimit 单次清扫最多处理的订单数
	BatchLimit int `yaml:"batch_limit" json:"batch_limit"`
}

type Log struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	Output     string `yaml:"output" json:"output"`
	FilePath   string `yaml:"file_path" json:"file_path"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// Validate validates the configuration
func (b *Bootstrap) Validate() error {
	if b.Server == nil {
		return fmt.Errorf("server configuration is required")
	}
	if b.Server.Http.Addr == "" {
		return fmt.Errorf("server.http.addr is required")
	}
	if b.Data == nil {
		return fmt.Errorf("data configuration is required")
	}
	if b.Data.Database.Source == "" {
		return fmt.Errorf("data.database.source is required")
	}
	if b.PayGate == nil {
		return fmt.Errorf("pay_gate configuration is required")
	}
	if b.PayGate.BaseURL == "" {
		return fmt.Errorf("pay_gate.base_url is required")
	}
	if b.PayGate.MerchantID == "" || b.PayGate.APIKey == "" || b.PayGate.APISecret == "" {
		return fmt.Errorf("pay_gate credentials are required")
	}
	return nil
}

// SweeperInterval 返回清扫周期，解析失败时回退默认值
func (b *Bootstrap) SweeperInterval() time.Duration {
	return durationOrDefault(b.sweeper().Interval, 60*time.Second)
}

// PendingTimeout 返回待支付超时时长，解析失败时回退默认值
func (b *Bootstrap) PendingTimeout() time.Duration {
	return durationOrDefault(b.sweeper().PendingTimeout, 10*time.Minute)
}

// SweeperBatchLimit 返回单次清扫批量上限
func (b *Bootstrap) SweeperBatchLimit() int {
	if s := b.Sweeper; s != nil && s.BatchLimit > 0 {
		return s.BatchLimit
	}
	return 200
}

// PayGateTimeout 返回支付网关请求超时时长
func (b *Bootstrap) PayGateTimeout() time.Duration {
	if b.PayGate == nil {
		return 15 * time.Second
	}
	return durationOrDefault(b.PayGate.Timeout, 15*time.Second)
}

func (b *Bootstrap) sweeper() *Sweeper {
	if b.Sweeper != nil {
		return b.Sweeper
	}
	return &Sweeper{}
}

func durationOrDefault(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
