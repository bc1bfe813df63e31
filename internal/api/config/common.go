package config

// Config 配置主体
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Logstash     LogstashConfig     `mapstructure:"logstash"`
	DB           DBConfig           `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Mongo        MongoConfig        `mapstructure:"mongo"`
	Postgres     PostgresConfig     `mapstructure:"postgres"`
	PostgREST    PostgRESTConfig    `mapstructure:"postgrest"`
	MinIO        MinIOConfig        `mapstructure:"minio"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	KafkaCanal   KafkaCanalConsumer `mapstructure:"kafka_canal_consumer"`
	Realtime     RealtimeConfig     `mapstructure:"realtime"`
	Store        StoreConfig        `mapstructure:"store"`
	Presence     PresenceConfig     `mapstructure:"presence"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	ProfileCache ProfileCacheConfig `mapstructure:"profile_cache"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// DBConfig 数据库配置
type DBConfig struct {
	Driver      string `mapstructure:"driver"` // mysql | postgres | sqlite
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MongoConfig struct {
	URL        string `mapstructure:"url"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
	Timeout    int    `mapstructure:"timeout"` // 连接超时，秒
}

// PostgresConfig LISTEN/NOTIFY 推送源
type PostgresConfig struct {
	DSN     string `mapstructure:"dsn"`
	Channel string `mapstructure:"channel"`
}

// PostgRESTConfig 托管存储的 REST 入口
type PostgRESTConfig struct {
	URL     string `mapstructure:"url"`
	ApiKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	InternalEndpoint string `mapstructure:"internal_endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	AvatarBucket     string `mapstructure:"avatar_bucket"`
	InternalUseSSL   bool   `mapstructure:"internal_use_ssl"`
	UsePublicLink    bool   `mapstructure:"use_public_link"`
	PresignExpire    int    `mapstructure:"presign_expire"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

type KafkaCanalConsumer struct {
	Topic    string `mapstructure:"topic"`
	GroupID  string `mapstructure:"group_id"`
	Database string `mapstructure:"database"`
}

// RealtimeConfig 推送通道选择
type RealtimeConfig struct {
	Driver  string `mapstructure:"driver"` // local | redis | kafka | postgres | mongo
	Channel string `mapstructure:"channel"`
}

// StoreConfig 远端存储选择
type StoreConfig struct {
	Driver   string `mapstructure:"driver"`   // gorm | postgrest
	Messages string `mapstructure:"messages"` // sql | mongo
}

type PresenceConfig struct {
	Spec string `mapstructure:"spec"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type ProfileCacheConfig struct {
	Enable bool `mapstructure:"enable"`
	TTL    int  `mapstructure:"ttl"`
}
