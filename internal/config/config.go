package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type OAuthClient struct {
	ClientID     string
	ClientSecret string
}

type Config struct {
	Env             string
	Port            string
	MongoURI        string
	MongoDB         string
	RedisAddr       string
	RabbitURL       string
	RateLimitPerMin int

	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	StateTTLMin    int

	// Optional RS256 signing; when ActiveKeyPath is set the token service
	// signs with the active key and verifies against active+next.
	ActiveKid     string
	ActiveKeyPath string
	NextKid       string
	NextKeyPath   string

	// Policy knobs.
	RequireVerifiedEmail bool
	RotateRefresh        bool

	OAuthRedirectBase string
	Google            OAuthClient
	Facebook          OAuthClient
	Twitter           OAuthClient
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:             getenv("APP_ENV", "development"),
		Port:            getenv("APP_PORT", "8080"),
		MongoURI:        getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getenv("MONGO_DB", "auth_core"),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		RabbitURL:       getenv("RABBIT_URL", ""),
		RateLimitPerMin: atoi(getenv("RATE_LIMIT_PER_MIN", "10")),

		JWTSecret:      getenv("JWT_SECRET", "dev_secret_change_me"),
		AccessTTLMin:   atoi(getenv("ACCESS_TTL_MIN", "15")),
		RefreshTTLDays: atoi(getenv("REFRESH_TTL_DAYS", "7")),
		StateTTLMin:    atoi(getenv("OAUTH_STATE_TTL_MIN", "10")),

		ActiveKid:     getenv("JWT_ACTIVE_KID", ""),
		ActiveKeyPath: getenv("JWT_ACTIVE_KEY", ""),
		NextKid:       getenv("JWT_NEXT_KID", ""),
		NextKeyPath:   getenv("JWT_NEXT_KEY", ""),

		RequireVerifiedEmail: getenv("REQUIRE_VERIFIED_EMAIL", "false") == "true",
		RotateRefresh:        getenv("ROTATE_REFRESH", "true") == "true",

		OAuthRedirectBase: getenv("OAUTH_REDIRECT_BASE", "http://localhost:8080"),
		Google: OAuthClient{
			ClientID:     getenv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getenv("GOOGLE_CLIENT_SECRET", ""),
		},
		Facebook: OAuthClient{
			ClientID:     getenv("FACEBOOK_CLIENT_ID", ""),
			ClientSecret: getenv("FACEBOOK_CLIENT_SECRET", ""),
		},
		Twitter: OAuthClient{
			ClientID:     getenv("TWITTER_CLIENT_ID", ""),
			ClientSecret: getenv("TWITTER_CLIENT_SECRET", ""),
		},
	}
}

func (c Config) IsProd() bool { return c.Env == "production" }

func atoi(s string) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return 0
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
