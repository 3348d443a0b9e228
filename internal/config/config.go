// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Coach    CoachConfig    `mapstructure:"coach"`
	Report   ReportConfig   `mapstructure:"report"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。DSN 为空时使用内存存储。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。Addr 为空时聊天记录只保存在进程内。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 校验相关的配置。token 由外部认证服务签发。
type JWTConfig struct {
	Enabled                bool   `mapstructure:"enabled"`
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// LLMConfig 存储大语言模型相关的配置。APIKey 为空表示仅使用本地兜底回答。
type LLMConfig struct {
	APIKey         string              `mapstructure:"api_key"`
	BaseURL        string              `mapstructure:"base_url"`
	Model          string              `mapstructure:"model"`
	TimeoutSeconds int                 `mapstructure:"timeout_seconds"`
	Generation     LLMGenerationConfig `mapstructure:"generation"`
	Prompt         LLMPromptConfig     `mapstructure:"prompt"`
}

// LLMGenerationConfig 配置生成相关参数。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// LLMPromptConfig 配置系统提示。
type LLMPromptConfig struct {
	System string `mapstructure:"system"`
}

// CoachConfig 存储教练流程相关的配置。
type CoachConfig struct {
	LexiconPath     string               `mapstructure:"lexicon_path"`
	ChatDefaultLang string               `mapstructure:"chat_default_lang"`
	RecoDefaultLang string               `mapstructure:"reco_default_lang"`
	DefaultProfile  DefaultProfileConfig `mapstructure:"default_profile"`
}

// DefaultProfileConfig 是首次请求推荐时为用户创建的默认档案。
type DefaultProfileConfig struct {
	Name     string  `mapstructure:"name"`
	Age      int     `mapstructure:"age"`
	WeightKg float64 `mapstructure:"weight_kg"`
	HeightCm float64 `mapstructure:"height_cm"`
	MainGoal string  `mapstructure:"main_goal"`
	Lang     string  `mapstructure:"lang"`
}

// ReportConfig 配置每日报告的投递方式："direct" 同步发送，"kafka" 经队列异步发送。
type ReportConfig struct {
	Delivery string `mapstructure:"delivery"`
}

// SMTPConfig 存储邮件发送配置。
type SMTPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	From           string `mapstructure:"from"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// MinIOConfig 存储报告归档使用的对象存储配置。Endpoint 为空时不归档。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8003")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{
		"http://localhost:5173",
		"http://127.0.0.1:5173",
		"http://localhost:5174",
		"http://127.0.0.1:5174",
	})

	v.SetDefault("database.mysql.dsn", "")
	v.SetDefault("database.redis.addr", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("jwt.enabled", false)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_token_expire_hours", 24)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "")

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://router.huggingface.co/v1")
	v.SetDefault("llm.model", "google/gemma-2-2b-it")
	v.SetDefault("llm.timeout_seconds", 40)
	v.SetDefault("llm.generation.temperature", 0.7)
	v.SetDefault("llm.generation.top_p", 0.9)
	v.SetDefault("llm.generation.max_tokens", 500)
	v.SetDefault("llm.prompt.system", "")

	v.SetDefault("coach.lexicon_path", "")
	v.SetDefault("coach.chat_default_lang", "es")
	v.SetDefault("coach.reco_default_lang", "fr")
	v.SetDefault("coach.default_profile.name", "SportConnectIA")
	v.SetDefault("coach.default_profile.age", 39)
	v.SetDefault("coach.default_profile.weight_kg", 64)
	v.SetDefault("coach.default_profile.height_cm", 160)
	v.SetDefault("coach.default_profile.main_goal", "Perte de poids")
	v.SetDefault("coach.default_profile.lang", "fr")

	v.SetDefault("report.delivery", "direct")

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.timeout_seconds", 15)

	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "coach-reports")
	v.SetDefault("kafka.group_id", "sportconnect-report-consumer")

	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key_id", "")
	v.SetDefault("minio.secret_access_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket_name", "coach-reports")
}

// Load 读取 .env、YAML 配置文件和环境变量并返回配置。
// 配置文件不存在时只使用默认值和环境变量；环境变量名为键名大写并以下划线连接，如 LLM_API_KEY。
func Load(configPath string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("读取 .env 文件失败: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return c, nil
}

// Init 初始化配置加载，并将结果保存到全局变量 Conf 中。
func Init(configPath string) {
	c, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = c
}
