package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Admin     AdminConfig
	CORS      CORSConfig
	AI        AIConfig
	Budget    BudgetConfig
	Retry     RetryConfig
	Naver     NaverConfig
	Coupang   CoupangConfig
	Trends    TrendsConfig
	Kafka     KafkaConfig
	S3        S3Config
	Scheduler SchedulerConfig
	Timezone  string
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	LogFormat   string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// AdminConfig 관리자 로그인 정보 (비밀번호는 bcrypt 해시로만 보관)
type AdminConfig struct {
	Username     string
	PasswordHash string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// AIConfig 두 AI 공급자의 접속 정보와 기본 모델
type AIConfig struct {
	DefaultProvider   string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModelSmall  string
	OpenAIModelWriter string
	GeminiAPIKey      string
	GeminiBaseURL     string
	GeminiModelSmall  string
	GeminiModelWriter string
	GeminiSafety      string
	RequestTimeout    time.Duration
	SmallMaxTokens    int
	WriterMaxTokens   int
}

// BudgetConfig AI 비용 한도
type BudgetConfig struct {
	DailyCapUSD       float64
	MonthlyCapUSD     float64
	DefaultPricePer1K float64
	ModelPricePer1K   map[string]float64
	ReservationTTL    time.Duration
}

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

type NaverConfig struct {
	ClientID     string
	ClientSecret string
	BlogID       string
	RedirectURI  string
	APIBaseURL   string
	AuthBaseURL  string
	Timeout      time.Duration
}

type CoupangConfig struct {
	ScrapeEnabled bool
	ScrapeTimeout time.Duration
}

// TrendsConfig 키워드 수집 소스 (static, datalab, rss, xlsx)
type TrendsConfig struct {
	Source   string
	RSSURL   string
	XLSXPath string
	Category string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
	ArchiveEnabled  bool
}

type SchedulerConfig struct {
	PublishSpec      string
	KeywordFetchSpec string
	SweepSpec        string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogFormat:   getEnv("LOG_FORMAT", "console"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "coupang_partners"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		},
		AI: AIConfig{
			DefaultProvider:   getEnv("AI_PROVIDER", "gpt"),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIModelSmall:  getEnv("OPENAI_MODEL_SMALL", "gpt-4o-mini"),
			OpenAIModelWriter: getEnv("OPENAI_MODEL_WRITER", "gpt-4o-mini"),
			GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
			GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			GeminiModelSmall:  getEnv("GEMINI_MODEL_SMALL", "gemini-1.5-flash"),
			GeminiModelWriter: getEnv("GEMINI_MODEL_WRITER", "gemini-1.5-pro"),
			GeminiSafety:      getEnv("GEMINI_SAFETY", "low"),
			RequestTimeout:    parseDuration(getEnv("AI_REQUEST_TIMEOUT", "60s"), 60*time.Second),
			SmallMaxTokens:    parseInt(getEnv("AI_SMALL_MAX_TOKENS", "1200"), 1200),
			WriterMaxTokens:   parseInt(getEnv("AI_WRITER_MAX_TOKENS", "2000"), 2000),
		},
		Budget: BudgetConfig{
			DailyCapUSD:       parseFloat(getEnv("BUDGET_DAILY_CAP_USD", "0.67"), 0.67),
			MonthlyCapUSD:     parseFloat(getEnv("BUDGET_MONTHLY_CAP_USD", "20"), 20),
			DefaultPricePer1K: parseFloat(getEnv("BUDGET_DEFAULT_PRICE_PER_1K", "0.15"), 0.15),
			ModelPricePer1K:   parsePriceTable(getEnv("BUDGET_MODEL_PRICES", "gpt-4o-mini=0.15,gemini-1.5-flash=0.075,gemini-1.5-pro=1.25")),
			ReservationTTL:    parseDuration(getEnv("BUDGET_RESERVATION_TTL", "10m"), 10*time.Minute),
		},
		Retry: RetryConfig{
			MaxAttempts: parseInt(getEnv("AI_RETRY_MAX_ATTEMPTS", "3"), 3),
			BaseDelay:   parseDuration(getEnv("AI_RETRY_BASE_DELAY", "500ms"), 500*time.Millisecond),
			MaxDelay:    parseDuration(getEnv("AI_RETRY_MAX_DELAY", "8s"), 8*time.Second),
		},
		Naver: NaverConfig{
			ClientID:     getEnv("NAVER_CLIENT_ID", ""),
			ClientSecret: getEnv("NAVER_CLIENT_SECRET", ""),
			BlogID:       getEnv("NAVER_BLOG_ID", ""),
			RedirectURI:  getEnv("NAVER_REDIRECT_URI", "http://localhost:8080/api/v1/naver/callback"),
			APIBaseURL:   getEnv("NAVER_API_BASE_URL", "https://openapi.naver.com"),
			AuthBaseURL:  getEnv("NAVER_AUTH_BASE_URL", "https://nid.naver.com"),
			Timeout:      parseDuration(getEnv("NAVER_TIMEOUT", "30s"), 30*time.Second),
		},
		Coupang: CoupangConfig{
			ScrapeEnabled: parseBool(getEnv("COUPANG_SCRAPE", "false")),
			ScrapeTimeout: parseDuration(getEnv("COUPANG_SCRAPE_TIMEOUT", "12s"), 12*time.Second),
		},
		Trends: TrendsConfig{
			Source:   getEnv("TRENDS_SOURCE", "static"),
			RSSURL:   getEnv("TRENDS_RSS_URL", ""),
			XLSXPath: getEnv("TRENDS_XLSX_PATH", ""),
			Category: getEnv("TRENDS_CATEGORY", "생활가전"),
		},
		Kafka: KafkaConfig{
			Brokers: parseSlice(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "pipeline-events"),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			Bucket:          getEnv("AWS_S3_BUCKET", "coupang-partners-posts"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
			ArchiveEnabled:  parseBool(getEnv("POST_ARCHIVE_ENABLED", "false")),
		},
		Scheduler: SchedulerConfig{
			PublishSpec:      getEnv("SCHEDULER_PUBLISH_SPEC", "@every 30s"),
			KeywordFetchSpec: getEnv("SCHEDULER_KEYWORD_SPEC", "0 9 * * *"),
			SweepSpec:        getEnv("SCHEDULER_SWEEP_SPEC", "@every 5m"),
		},
		Timezone: getEnv("TIMEZONE", "Asia/Seoul"),
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Enabled redis 호스트가 지정된 경우에만 사용
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

// Location 설정된 타임존, 잘못된 값이면 UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Invalid timezone %s, using UTC", c.Timezone)
		return time.UTC
	}
	return loc
}

// PriceFor 모델별 1K 토큰 단가
func (c *BudgetConfig) PriceFor(model string) float64 {
	if p, ok := c.ModelPricePer1K[model]; ok {
		return p
	}
	return c.DefaultPricePer1K
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return v
}

func parseFloat(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		log.Printf("Invalid number %s, using default %v", s, fallback)
		return fallback
	}
	return v
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && v
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

// parsePriceTable "model=price,model=price" 형식 파싱
func parsePriceTable(s string) map[string]float64 {
	table := make(map[string]float64)
	for _, entry := range parseSlice(s) {
		kv := strings.SplitN(entry, "=", 2)
		if len(kv) != 2 {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			log.Printf("Invalid price for model %s: %s", kv[0], kv[1])
			continue
		}
		table[strings.TrimSpace(kv[0])] = price
	}
	return table
}
