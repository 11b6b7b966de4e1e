package core

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator() *validator.Validate {
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := validator.New()
	InitValidators(validate, translator)
	return validate
}

func validTestConfig() *Config {
	conf := &Config{
		AppName:          "Darasa",
		SecretKey:        "test-secret",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: "noreply@localhost",
	}
	conf.Server.Port = "8000"
	conf.Database.Engine = "postgres"
	conf.Database.Name = "darasa"
	conf.Database.Host = "localhost"
	conf.Database.Port = "5432"
	conf.Classroom.BaseURL = "https://classroom.googleapis.com/v1"
	conf.Classroom.TokenURL = "https://oauth2.googleapis.com/token"
	conf.Classroom.PageSize = 50
	return conf
}

func TestConfig_Validate(t *testing.T) {
	validate := newTestValidator()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validTestConfig().Validate(validate))
	})

	t.Run("missing and out-of-range fields are all reported", func(t *testing.T) {
		conf := validTestConfig()
		conf.SecretKey = ""
		conf.Classroom.PageSize = 0

		err := conf.Validate(validate)
		verr, ok := err.(*ValidationError)
		require.True(t, ok, "expected *ValidationError, got %T", err)

		fields := make([]string, 0, len(verr.Fields))
		for _, fe := range verr.Fields {
			fields = append(fields, fe.Field)
		}
		assert.Contains(t, fields, "Config.SecretKey")
		assert.Contains(t, fields, "Config.Classroom.PageSize")
	})
}
