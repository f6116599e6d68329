package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/flagx"
	"github.com/dmitrijs2005/credkeeper/internal/timex"
)

// JsonConfig is the on-disk JSON shape. Durations accept "15m" style strings
// or integer nanoseconds. Pointer fields distinguish "absent" from zero so a
// file only overrides what it names.
type JsonConfig struct {
	Environment                       *string         `json:"environment"`
	HTTPAddr                          *string         `json:"http_addr"`
	GRPCAddr                          *string         `json:"grpc_addr"`
	DatabaseDSN                       *string         `json:"database_dsn"`
	RedisURL                          *string         `json:"redis_url"`
	LogLevel                          *string         `json:"log_level"`
	SecretKey                         *string         `json:"secret_key"`
	AccessTokenValidityDuration       *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration      *timex.Duration `json:"refresh_token_validity_duration"`
	VerificationTokenValidityDuration *timex.Duration `json:"verification_token_validity_duration"`
	ResetTokenValidityDuration        *timex.Duration `json:"reset_token_validity_duration"`
	CheckAccessRevocation             *bool           `json:"check_access_revocation"`
	PasswordHasher                    *string         `json:"password_hasher"`
	BcryptCost                        *int            `json:"bcrypt_cost"`
	FrontendURL                       *string         `json:"frontend_url"`
	CORSOrigins                       []string        `json:"cors_origins"`
	SMTPHost                          *string         `json:"smtp_host"`
	SMTPPort                          *int            `json:"smtp_port"`
	SMTPUser                          *string         `json:"smtp_user"`
	SMTPPassword                      *string         `json:"smtp_password"`
	SMTPFrom                          *string         `json:"smtp_from"`
	TemplatesDir                      *string         `json:"templates_dir"`
	S3TemplatesBucket                 *string         `json:"s3_templates_bucket"`
	S3TemplatesPrefix                 *string         `json:"s3_templates_prefix"`
	S3Region                          *string         `json:"s3_region"`
	S3BaseEndpoint                    *string         `json:"s3_base_endpoint"`
	S3AccessKey                       *string         `json:"s3_access_key"`
	S3SecretKey                       *string         `json:"s3_secret_key"`
}

// parseJson overlays the JSON file named by -c/-config, if any.
func parseJson(config *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.Environment, c.Environment)
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDuration(&config.VerificationTokenValidityDuration, c.VerificationTokenValidityDuration)
	setDuration(&config.ResetTokenValidityDuration, c.ResetTokenValidityDuration)
	if c.CheckAccessRevocation != nil {
		config.CheckAccessRevocation = *c.CheckAccessRevocation
	}
	setString(&config.PasswordHasher, c.PasswordHasher)
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	setString(&config.FrontendURL, c.FrontendURL)
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != nil {
		config.SMTPPort = *c.SMTPPort
	}
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.TemplatesDir, c.TemplatesDir)
	setString(&config.S3TemplatesBucket, c.S3TemplatesBucket)
	setString(&config.S3TemplatesPrefix, c.S3TemplatesPrefix)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
