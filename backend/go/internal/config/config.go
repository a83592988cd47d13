package config

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
)

// OllamaConfig 包含了本地 Ollama 服务的配置。
type OllamaConfig struct {
	Host    string `yaml:"host"`    // Ollama 服务地址 (例如: "http://localhost:11434")
	Model   string `yaml:"model"`   // 要使用的模型名称 (例如: "llama3.2")
	Timeout string `yaml:"timeout"` // 单次抽取请求的超时时间 (例如: "10s")
}

// OpenAIConfig 包含了 OpenAI 兼容服务的配置。
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"` // OpenAI API 密钥
	Model  string `yaml:"model"`  // 模型名称
}

// GeminiConfig 包含了 Gemini 模型的配置。
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"` // Gemini API 密钥
	Model  string `yaml:"model"`  // Gemini 模型名称
}

// LLMConfig 包含了不同 LLM 提供商的配置。抽取事件时只会使用 Provider 指定的一个。
type LLMConfig struct {
	Provider string       `yaml:"provider"` // LLM提供商 ("ollama", "openai", "gemini")
	Ollama   OllamaConfig `yaml:"ollama"`   // Ollama 配置
	OpenAI   OpenAIConfig `yaml:"openai"`   // OpenAI 配置
	Gemini   GeminiConfig `yaml:"gemini"`   // Gemini 配置
}

// InterpreterConfig 定义了指令解释器的显式策略。
// 这些都是文档化、可覆盖的策略，而不是隐式的猜测。
type InterpreterConfig struct {
	Timezone               string `yaml:"timezone"`               // 默认 IANA 时区 (例如: "America/New_York")
	DefaultDurationMinutes int    `yaml:"defaultDurationMinutes"` // 未指定时长时的默认值（分钟）
	BusinessHoursStart     int    `yaml:"businessHoursStart"`     // 工作时间起点（小时，24小时制），用于消解无 AM/PM 的时间
	BusinessHoursEnd       int    `yaml:"businessHoursEnd"`       // 工作时间终点（小时，24小时制）
}

// CalendarConfig 定义了下游日历服务的访问配置。
type CalendarConfig struct {
	CredentialsFile string `yaml:"credentialsFile"` // OAuth 客户端凭据文件路径 (credentials.json)
	TokenFile       string `yaml:"tokenFile"`       // 已授权用户令牌文件路径 (token.json)
	CalendarID      string `yaml:"calendarID"`      // 目标日历ID (例如: "primary")
	SendUpdates     string `yaml:"sendUpdates"`     // 事件变更时的通知策略 ("all", "none")
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address  string `yaml:"address"`  // MongoDB 服务器地址
	Username string `yaml:"username"` // 用户名
	Password string `yaml:"password"` // 密码
	Database string `yaml:"database"` // 数据库名称
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`      // Kafka Broker 地址列表
	IntentsTopic string   `yaml:"intentsTopic"` // 已解析意图的主题
	ResultsTopic string   `yaml:"resultsTopic"` // 预订结果的主题
}

// EtcdConfig 定义了 Etcd 服务发现的连接配置。
type EtcdConfig struct {
	Endpoints []string `yaml:"endpoints"` // Etcd 节点地址列表
	Username  string   `yaml:"username"`  // 用户名
	Password  string   `yaml:"password"`  // 密码
}

// DatabaseConfigs 包含所有数据库与消息队列的配置。
type DatabaseConfigs struct {
	Redis   RedisConfig `yaml:"redis"`   // Redis 数据库配置
	MongoDB MongoConfig `yaml:"mongodb"` // MongoDB 数据库配置
	Kafka   KafkaConfig `yaml:"kafka"`   // Kafka 消息队列配置
	Etcd    EtcdConfig  `yaml:"etcd"`    // Etcd 服务发现配置
}

// AuthConfig 用于配置认证方法和相关设置。
type AuthConfig struct {
	JwtSecret string `yaml:"jwtSecret"` // JWT 密钥
	TokenTTL  int    `yaml:"tokenTTL"`  // JWT 令牌的有效期（秒）
}

// CommandServiceConfig 定义了指令服务的运行配置。
type CommandServiceConfig struct {
	ServerAddress   string `yaml:"serverAddress"`   // HTTP 监听地址 (例如: ":8000")
	MongoCollection string `yaml:"mongoCollection"` // 指令记录集合名称
	ConsumerGroup   string `yaml:"consumerGroup"`   // 结果消费者组ID
	CacheTTL        string `yaml:"cacheTTL"`        // 解释结果缓存的有效期 (例如: "10m")
}

// BookingServiceConfig 定义了预订服务的运行配置。
type BookingServiceConfig struct {
	HealthAddress string `yaml:"healthAddress"` // 健康检查 HTTP 监听地址 (例如: ":8001")
	ConsumerGroup string `yaml:"consumerGroup"` // 意图消费者组ID
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了限流器的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Algorithm   string            `yaml:"algorithm"` // 支持: "tokenBucket", "fixedWindow"
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
	FixedWindow FixedWindowConfig `yaml:"fixedWindow"`
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// FixedWindowConfig 定义了固定窗口计数器算法的配置。
type FixedWindowConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"` // 例如: "1m", "30s"
}

// CircuitBreakerConfig 定义了熔断器的配置。
// 同一份配置既用于 HTTP 中间件，也用于解释器中保护 LLM 调用的熔断器。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App            AppInfo              `yaml:"app"`            // 应用程序信息
	Auth           AuthConfig           `yaml:"auth"`           // 认证配置
	LLM            LLMConfig            `yaml:"llm"`            // LLM 配置部分
	Interpreter    InterpreterConfig    `yaml:"interpreter"`    // 指令解释器策略
	Calendar       CalendarConfig       `yaml:"calendar"`       // 日历服务配置
	Logger         LoggerConfig         `yaml:"logger"`         // 日志记录器配置
	Databases      DatabaseConfigs      `yaml:"databases"`      // 数据库配置
	CommandService CommandServiceConfig `yaml:"commandService"` // 指令服务配置
	BookingService BookingServiceConfig `yaml:"bookingService"` // 预订服务配置
	Middleware     MiddlewareConfig     `yaml:"middleware"`     // 中间件配置
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	// 读取 YAML 文件内容。
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig // 声明一个AppConfig变量用于存储解析后的配置。
	// 将 YAML 内容解析到 cfg 结构体中。
	err = yaml.Unmarshal(yamlFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	return &cfg, nil // 返回解析后的配置和nil错误。
}
