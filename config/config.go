package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Subscription SubscriptionConfig `mapstructure:"subscription"`
	Events       EventsConfig       `mapstructure:"events"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type SubscriptionConfig struct {
	ExpiryWarningDays   int               `mapstructure:"expiry_warning_days"`   // 到期提醒阈值（天）
	ReactivateOnApprove bool              `mapstructure:"reactivate_on_approve"` // 审批通过时是否顺带解除停用
	RolePlanTypes       map[string]string `mapstructure:"role_plan_types"`       // 角色 -> 套餐类型
	DefaultPlanType     string            `mapstructure:"default_plan_type"`     // 未映射角色的默认套餐类型
}

type EventsConfig struct {
	SubscriptionChannel string `mapstructure:"subscription_channel"`
}

// ExpiryWarningDaysOrDefault 到期提醒阈值，未配置时默认 7 天
func (c SubscriptionConfig) ExpiryWarningDaysOrDefault() int {
	if c.ExpiryWarningDays <= 0 {
		return 7
	}
	return c.ExpiryWarningDays
}

// PlanTypeForRole 根据用户角色查找可见的套餐类型
func (c SubscriptionConfig) PlanTypeForRole(role string) string {
	if planType, ok := c.RolePlanTypes[role]; ok {
		return planType
	}
	if c.DefaultPlanType != "" {
		return c.DefaultPlanType
	}
	return "institute"
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	// 检查 config.local.yaml 是否存在
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 环境变量覆盖
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
