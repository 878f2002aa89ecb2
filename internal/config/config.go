// Package config layers defaults, an optional YAML file, LIBRETAG_*
// environment variables and command-line flags into run settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/oukeidos/libretag/internal/limit"
	"github.com/oukeidos/libretag/internal/pipeline"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "LIBRETAG"
	FileName  = ".libretag"

	KeyAPIURL         = "api_url"
	KeyHTTPTimeout    = "http_timeout"
	KeyCharLimit      = "char_limit"
	KeyLimitBehavior  = "limit_behavior"
	KeySourceLang     = "source_lang"
	KeyTargetLang     = "target_lang"
	KeyTagSuccess     = "tag_success"
	KeyTagFailure     = "tag_failure"
	KeyCountGraphemes = "count_graphemes"
	KeyDB             = "db"
)

// DefaultDB is the record database used when none is configured.
const DefaultDB = "libretag.db"

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"api-url":         KeyAPIURL,
	"timeout":         KeyHTTPTimeout,
	"char-limit":      KeyCharLimit,
	"limit-behavior":  KeyLimitBehavior,
	"source":          KeySourceLang,
	"target":          KeyTargetLang,
	"tag-success":     KeyTagSuccess,
	"tag-failure":     KeyTagFailure,
	"count-graphemes": KeyCountGraphemes,
	"db":              KeyDB,
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	d := pipeline.DefaultSettings()
	v.SetDefault(KeyAPIURL, "")
	v.SetDefault(KeyHTTPTimeout, d.HTTPTimeoutSeconds)
	v.SetDefault(KeyCharLimit, d.CharLimit)
	v.SetDefault(KeyLimitBehavior, string(d.LimitBehavior))
	v.SetDefault(KeySourceLang, d.SourceLanguage)
	v.SetDefault(KeyTargetLang, d.TargetLanguage)
	v.SetDefault(KeyTagSuccess, false)
	v.SetDefault(KeyTagFailure, false)
	v.SetDefault(KeyCountGraphemes, false)
	v.SetDefault(KeyDB, DefaultDB)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile loads cfgFile, or searches $HOME and the working directory for
// .libretag.yaml when cfgFile is empty. A missing file is only an error when
// it was named explicitly. It returns the file actually used.
func ReadFile(v *viper.Viper, cfgFile string) (string, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(FileName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// BindFlags binds every known flag present in fs. Flags the user did not
// set fall through to the environment, the file and the defaults.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Settings builds pipeline settings from v. The API key is not part of the
// file or environment config; callers add it from the keychain.
func Settings(v *viper.Viper) pipeline.Settings {
	return pipeline.Settings{
		APIURL:             v.GetString(KeyAPIURL),
		HTTPTimeoutSeconds: v.GetInt(KeyHTTPTimeout),
		CharLimit:          v.GetInt(KeyCharLimit),
		LimitBehavior:      limit.Behavior(v.GetString(KeyLimitBehavior)),
		SourceLanguage:     v.GetString(KeySourceLang),
		TargetLanguage:     v.GetString(KeyTargetLang),
		TagOnSuccess:       v.GetBool(KeyTagSuccess),
		TagOnFailure:       v.GetBool(KeyTagFailure),
		CountGraphemes:     v.GetBool(KeyCountGraphemes),
	}
}

// DBPath returns the configured record database path.
func DBPath(v *viper.Viper) string {
	return v.GetString(KeyDB)
}
