package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for optional configuration fields.
const (
	DefaultPort              = "8080"
	DefaultTopic             = "public"
	DefaultQueueCapacity     = 256
	DefaultSlowConsumerLimit = 3
	DefaultMaxMessageSize    = 4096
	DefaultMaxNameLength     = 32
	DefaultPingInterval      = 30 * time.Second
	DefaultReadTimeout       = 60 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultKafkaGroupID      = "chat-ws"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Chat      ChatConfig      `yaml:"chat"`
	Websocket WebsocketConfig `yaml:"websocket"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type ChatConfig struct {
	DefaultTopic      string `yaml:"default_topic"`
	QueueCapacity     int    `yaml:"queue_capacity"`
	SlowConsumerLimit *int   `yaml:"slow_consumer_limit"`
	TrustClientSender bool   `yaml:"trust_client_sender"`
	AnnounceLeave     *bool  `yaml:"announce_leave_on_disconnect"`
	MaxMessageSize    int64  `yaml:"max_message_size"`
	MaxNameLength     int    `yaml:"max_name_length"`
}

type WebsocketConfig struct {
	PingInterval time.Duration `yaml:"ping_interval"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	GroupID            string   `yaml:"group_id"`
	AnnouncementTopics []string `yaml:"announcement_topics"`
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	Directory string `yaml:"directory"`
}

// Load reads the optional YAML file at path (with ${VAR} expansion), applies environment
// overrides and defaults, and validates the result. An empty path or a missing file
// yields a configuration built from the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
				return nil, fmt.Errorf("parse config yaml: %w", err)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// SlowConsumerLimitValue returns the configured limit; zero disables forced closes.
func (c ChatConfig) SlowConsumerLimitValue() int {
	if c.SlowConsumerLimit == nil {
		return DefaultSlowConsumerLimit
	}
	return *c.SlowConsumerLimit
}

func (c ChatConfig) AnnounceLeaveValue() bool {
	if c.AnnounceLeave == nil {
		return true
	}
	return *c.AnnounceLeave
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("PORT"); ok {
		c.Server.Port = v
	}
	if v, ok := get("ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := get("CHAT_DEFAULT_TOPIC"); ok {
		c.Chat.DefaultTopic = v
	}
	if v, ok := get("CHAT_QUEUE_CAPACITY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHAT_QUEUE_CAPACITY: %w", err)
		}
		c.Chat.QueueCapacity = n
	}
	if v, ok := get("CHAT_SLOW_CONSUMER_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHAT_SLOW_CONSUMER_LIMIT: %w", err)
		}
		c.Chat.SlowConsumerLimit = &n
	}
	if v, ok := get("CHAT_TRUST_CLIENT_SENDER"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CHAT_TRUST_CLIENT_SENDER: %w", err)
		}
		c.Chat.TrustClientSender = b
	}
	if v, ok := get("CHAT_ANNOUNCE_LEAVE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CHAT_ANNOUNCE_LEAVE: %w", err)
		}
		c.Chat.AnnounceLeave = &b
	}
	if v, ok := get("CHAT_MAX_MESSAGE_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("CHAT_MAX_MESSAGE_SIZE: %w", err)
		}
		c.Chat.MaxMessageSize = n
	}
	if v, ok := get("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
	} else if v, ok := get("KAFKA_BROKER"); ok {
		c.Kafka.Brokers = splitList(v)
	}
	if v, ok := get("KAFKA_GROUP_ID"); ok {
		c.Kafka.GroupID = v
	}
	if v, ok := get("KAFKA_ANNOUNCEMENT_TOPICS"); ok {
		c.Kafka.AnnouncementTopics = splitList(v)
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.Logging.Format = v
	}
	if v, ok := get("LOG_DIR"); ok {
		c.Logging.Directory = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.Server.Port = strings.TrimPrefix(strings.TrimSpace(c.Server.Port), ":")
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if strings.TrimSpace(c.Chat.DefaultTopic) == "" {
		c.Chat.DefaultTopic = DefaultTopic
	}
	if c.Chat.QueueCapacity == 0 {
		c.Chat.QueueCapacity = DefaultQueueCapacity
	}
	if c.Chat.MaxMessageSize == 0 {
		c.Chat.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.Chat.MaxNameLength == 0 {
		c.Chat.MaxNameLength = DefaultMaxNameLength
	}
	if c.Websocket.PingInterval == 0 {
		c.Websocket.PingInterval = DefaultPingInterval
	}
	if c.Websocket.ReadTimeout == 0 {
		c.Websocket.ReadTimeout = DefaultReadTimeout
	}
	if c.Websocket.WriteTimeout == 0 {
		c.Websocket.WriteTimeout = DefaultWriteTimeout
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = DefaultKafkaGroupID
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: invalid port %q", c.Server.Port))
	}
	if c.Chat.QueueCapacity < 1 {
		errs = append(errs, errors.New("chat.queue_capacity: must be at least 1"))
	}
	if c.Chat.SlowConsumerLimitValue() < 0 {
		errs = append(errs, errors.New("chat.slow_consumer_limit: must not be negative"))
	}
	if c.Chat.MaxMessageSize < 1 {
		errs = append(errs, errors.New("chat.max_message_size: must be positive"))
	}
	if c.Chat.MaxNameLength < 1 {
		errs = append(errs, errors.New("chat.max_name_length: must be positive"))
	}
	if c.Websocket.ReadTimeout <= c.Websocket.PingInterval {
		errs = append(errs, errors.New("websocket.read_timeout: must exceed ping_interval"))
	}
	if len(c.Kafka.AnnouncementTopics) > 0 && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers: required when announcement_topics are set"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unsupported %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
