package core

import (
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Debug            bool
	TestMode         bool
	Env              string
	AppName          string `validate:"required"`
	SecretKey        string `validate:"required"`
	Build            string
	FrontendBaseURL  string `validate:"required,url"`
	DefaultFromName  string
	DefaultFromEmail string `validate:"required,email"`
	SendgridApiKey   string
	RollbarToken     string

	Server struct {
		Host               string
		Port               string        `validate:"required"`
		JWTExpirationDelta time.Duration `validate:"min=0"`
		ShutdownTimeout    time.Duration `validate:"min=0"`
	}

	Database struct {
		Engine        string `validate:"required"`
		Name          string `validate:"required"`
		Host          string `validate:"required"`
		Port          string `validate:"required"`
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// Classroom holds the external classroom provider settings.
	Classroom struct {
		BaseURL      string `validate:"required,url"`
		TokenURL     string `validate:"required,url"`
		ClientID     string
		ClientSecret string
		PageSize     int `validate:"min=1,max=100"`
		MaxRetries   int `validate:"min=0"`
		// TokenExpiryMargin: a stored access token expiring within this
		// margin is treated as already expired and refreshed before use.
		TokenExpiryMargin time.Duration `validate:"min=0"`
	}
}

// Validate checks the loaded configuration, returning a ValidationError
// listing every offending field.
func (c *Config) Validate(validate *validator.Validate) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	flds := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		flds = append(flds, FieldError{Field: fe.StructNamespace(), Error: fe.Tag()})
	}
	return NewValidationError(errors.New("invalid configuration"), flds...)
}

func (c *Config) ServerAddress() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

func (c *Config) DatabaseAddress() string {
	return net.JoinHostPort(c.Database.Host, c.Database.Port)
}

func (c *Config) DefaultFromAddr() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromEmail}
}

// LoadConfig loads configuration from defaults, an optional config/.env.<env>
// file and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("secretKey", "w3g-m1rr0r$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromName", "Darasa")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "darasa")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("classroom.baseURL", "https://classroom.googleapis.com/v1")
	v.SetDefault("classroom.tokenURL", "https://oauth2.googleapis.com/token")
	v.SetDefault("classroom.pageSize", 50)
	v.SetDefault("classroom.maxRetries", 3)
	v.SetDefault("classroom.tokenExpiryMargin", 5*time.Minute)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	conf.Env = env
	return conf, nil
}
