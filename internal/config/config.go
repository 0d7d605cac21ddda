// Package config 提供配置管理
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Planner  PlannerConfig  `yaml:"planner"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig API配置
type APIConfig struct {
	RateLimit int           `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout"`
}

// PlannerConfig 排班规划引擎配置
type PlannerConfig struct {
	MinBreakHours       float64       `yaml:"min_break_hours"`
	MaxHoursPerDay      float64       `yaml:"max_hours_per_day"`
	AvailabilityPenalty float64       `yaml:"availability_penalty"`
	ClusterDistanceKm   float64       `yaml:"cluster_distance_km"`
	AdjacentGapHours    float64       `yaml:"adjacent_gap_hours"`
	RunTimeout          time.Duration `yaml:"run_timeout"` // 调用方超时，算法内部无取消点

	// 软约束权重
	WeightFairness     float64 `yaml:"weight_fairness"`
	WeightAvailability float64 `yaml:"weight_availability"`
	WeightReliability  float64 `yaml:"weight_reliability"`
	WeightSkillQuality float64 `yaml:"weight_skill_quality"`
	WeightClustering   float64 `yaml:"weight_clustering"`

	// 技能词表（逗号分隔，空表示不校验技能名）
	SkillVocabulary []string `yaml:"skill_vocabulary"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "dingban"),
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnvInt("APP_PORT", 7030),
			LogLevel: getEnv("APP_LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "dingban"),
			User:            getEnv("DB_USER", "dingban"),
			Password:        getEnv("DB_PASSWORD", "dingban123"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		API: APIConfig{
			RateLimit: getEnvInt("API_RATE_LIMIT", 100),
			Timeout:   getEnvDuration("API_TIMEOUT", 30*time.Second),
		},
		Planner: PlannerConfig{
			MinBreakHours:       getEnvFloat("PLANNER_MIN_BREAK_HOURS", 8),
			MaxHoursPerDay:      getEnvFloat("PLANNER_MAX_HOURS_PER_DAY", 12),
			AvailabilityPenalty: getEnvFloat("PLANNER_AVAILABILITY_PENALTY", 0.3),
			ClusterDistanceKm:   getEnvFloat("PLANNER_CLUSTER_DISTANCE_KM", 5),
			AdjacentGapHours:    getEnvFloat("PLANNER_ADJACENT_GAP_HOURS", 2),
			RunTimeout:          getEnvDuration("PLANNER_RUN_TIMEOUT", 10*time.Second),
			WeightFairness:      getEnvFloat("PLANNER_WEIGHT_FAIRNESS", 0.25),
			WeightAvailability:  getEnvFloat("PLANNER_WEIGHT_AVAILABILITY", 0.30),
			WeightReliability:   getEnvFloat("PLANNER_WEIGHT_RELIABILITY", 0.25),
			WeightSkillQuality:  getEnvFloat("PLANNER_WEIGHT_SKILL_QUALITY", 0.15),
			WeightClustering:    getEnvFloat("PLANNER_WEIGHT_CLUSTERING", 0.05),
			SkillVocabulary:     getEnvList("PLANNER_SKILL_VOCABULARY", nil),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	return cfg, nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultValue
}
