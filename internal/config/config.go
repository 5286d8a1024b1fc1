package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load charge le fichier .env s'il existe
func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

type Config struct {
	Port           string
	AllowedOrigins []string

	JWTSecret string
	JWTTTL    time.Duration

	Scylla  ScyllaConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Elastic ElasticConfig
	MinIO   MinIOConfig
	SMTP    SMTPConfig

	OTPTTL         time.Duration
	OTPMaxAttempts int

	// OTPRequestLimit - demandes de code autorisées par identité et par OTPRequestWindow
	OTPRequestLimit  int
	OTPRequestWindow time.Duration
	// OTPVerifyLimit - vérifications autorisées par identité et par OTPRequestWindow
	OTPVerifyLimit   int

	// AdminIdentities - emails ou téléphones qui reçoivent le rôle admin à la connexion
	AdminIdentities []string

	TrustClientOfferPrice bool
	StrictOrderStatus     bool
	StockCASAttempts      int
	ProductCacheTTL       time.Duration
}

type ScyllaConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	CACertPath  string
	SSLEnabled  bool
	AutoMigrate bool
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
}

type ElasticConfig struct {
	URL      string
	Username string
	Password string
	Index    string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// FromEnv lit la configuration depuis l'environnement, avec des valeurs par défaut
func FromEnv() Config {
	return Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),

		Scylla: ScyllaConfig{
			Hosts:       getList("SCYLLA_HOSTS", []string{"127.0.0.1:9042"}),
			Keyspace:    getEnv("SCYLLA_KS_PRODUCTS_KEYSPACE", "ks_products"),
			Username:    getEnv("SCYLLA_KS_PRODUCTS_ROLE", ""),
			Password:    getEnv("SCYLLA_KS_PRODUCTS_PASSWORD", ""),
			CACertPath:  getEnv("SCYLLA_SSL_CA_PATH", ""),
			SSLEnabled:  getBool("SCYLLA_SSL_ENABLED", false),
			AutoMigrate: getBool("SCYLLA_AUTO_MIGRATE", false),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "essence"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Elastic: ElasticConfig{
			URL:      getEnv("ELASTIC_URL", "http://localhost:9200"),
			Username: getEnv("ELASTIC_USER", ""),
			Password: getEnv("ELASTIC_PASSWORD", ""),
			Index:    getEnv("ELASTIC_PRODUCTS_INDEX", "products"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "products"),
			UseSSL:    getBool("MINIO_USE_SSL", false),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "noreply@essence.local"),
		},

		OTPTTL:           getDuration("OTP_TTL", 5*time.Minute),
		OTPMaxAttempts:   getInt("OTP_MAX_ATTEMPTS", 5),
		OTPRequestLimit:  getInt("OTP_REQUEST_LIMIT", 3),
		OTPRequestWindow: getDuration("OTP_REQUEST_WINDOW", 10*time.Minute),
		OTPVerifyLimit:   getInt("OTP_VERIFY_LIMIT", 10),

		AdminIdentities: getList("ADMIN_IDENTITIES", nil),

		TrustClientOfferPrice: getBool("TRUST_CLIENT_OFFER_PRICE", false),
		StrictOrderStatus:     getBool("ORDER_STATUS_STRICT", true),
		StockCASAttempts:      getInt("STOCK_CAS_ATTEMPTS", 5),
		ProductCacheTTL:       getDuration("PRODUCT_CACHE_TTL", 10*time.Minute),
	}
}

// Validate signale les réglages sans lesquels le serveur ne peut pas démarrer
func (c Config) Validate() []string {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(c.Scylla.Hosts) == 0 {
		missing = append(missing, "SCYLLA_HOSTS")
	}
	if c.Mongo.URI == "" {
		missing = append(missing, "MONGO_URI")
	}
	return missing
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %d", key, v, def)
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %v", key, v, def)
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %s", key, v, def)
		return def
	}
	return d
}

func getList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
