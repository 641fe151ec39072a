// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/sallust"
	"github.com/xmidt-org/workkit/pool"
	"github.com/xmidt-org/workkit/retry"
	"github.com/xmidt-org/workkit/timeout"
	"github.com/xmidt-org/workkit/xmetrics"
)

const (
	// ApplicationName is the default configuration file name and environment prefix
	ApplicationName = "workkit"

	FileFlag    = "file"
	NameFlag    = "name"
	DebugFlag   = "debug"
	ThreadsFlag = "threads"

	// ThreadsKey is the viper key watched for resizes
	ThreadsKey = "pool.threads"

	DefaultResizeDelay     = time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// RetryConfig configures the retries of Service.Submit
type RetryConfig struct {
	MaxRetries int           `mapstructure:"maxRetries"`
	Delay      time.Duration `mapstructure:"delay"`
}

// Config is the complete configuration of a Service
type Config struct {
	// Debug forces the Extended timeout policy everywhere
	Debug bool `mapstructure:"debug"`

	// Timeout is the timeout policy, by name.  Debug takes precedence.
	Timeout timeout.Policy `mapstructure:"timeout"`

	Logging   sallust.Config   `mapstructure:"logging"`
	Metrics   xmetrics.Options `mapstructure:"metrics"`
	Pool      pool.Options     `mapstructure:"pool"`
	Scheduled pool.Options     `mapstructure:"scheduled"`
	Retry     RetryConfig      `mapstructure:"retry"`

	// ResizeDelay is how long thread count changes settle before the pool is resized
	ResizeDelay time.Duration `mapstructure:"resizeDelay"`

	// ShutdownTimeout bounds Stop when the caller's context has no deadline
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

// TimeoutPolicy is the policy handed to every component
func (c Config) TimeoutPolicy() timeout.Policy {
	if c.Debug {
		return timeout.Extended
	}

	return c.Timeout
}

func (c Config) resizeDelay() time.Duration {
	if c.ResizeDelay > 0 {
		return c.ResizeDelay
	}

	return DefaultResizeDelay
}

func (c Config) shutdownTimeout() time.Duration {
	if c.ShutdownTimeout > 0 {
		return c.ShutdownTimeout
	}

	return DefaultShutdownTimeout
}

// Defaults are applied to every viper built by NewViper
var Defaults = map[string]interface{}{
	"logging.level":            "info",
	"logging.encoding":         "json",
	"logging.outputPaths":      []string{"stdout"},
	"logging.errorOutputPaths": []string{"stderr"},
	"pool.name":                "workers",
	"pool.threads":             pool.DefaultThreads(2),
	"pool.queueCapacity":       pool.DefaultQueueCapacity,
	"pool.policy":              pool.CallerRunsName,
	"scheduled.name":           "scheduled",
	"scheduled.threads":        2,
	"retry.maxRetries":         retry.DefaultMaxRetries,
	"retry.delay":              retry.DefaultDelay,
	"resizeDelay":              DefaultResizeDelay,
	"shutdownTimeout":          DefaultShutdownTimeout,
}

// NewFlagSet defines the command line of a scheduler application
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP(FileFlag, "f", "", "the fully qualified configuration file, which overrides --name")
	fs.StringP(NameFlag, "n", ApplicationName, "the configuration file name, searched for in the standard locations")
	fs.Bool(DebugFlag, false, "extends every timeout, for debugging")
	fs.Int(ThreadsFlag, 0, "the worker pool thread count, overriding configuration")
	return fs
}

// NewViper parses arguments with fs and produces a viper bound to it.  The configuration file is
// --file if set, otherwise --name in /etc/<name>, $HOME/.<name>, and the current directory.  A missing
// file is only an error if --file was given.
func NewViper(fs *pflag.FlagSet, arguments []string) (*viper.Viper, error) {
	if err := fs.Parse(arguments); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(ApplicationName)
	v.AutomaticEnv()

	file, _ := fs.GetString(FileFlag)
	if len(file) > 0 {
		v.SetConfigFile(file)
	} else {
		name, _ := fs.GetString(NameFlag)
		v.SetConfigName(name)
		v.AddConfigPath(fmt.Sprintf("/etc/%s", name))
		v.AddConfigPath(fmt.Sprintf("$HOME/.%s", name))
		v.AddConfigPath(".")
	}

	if err := v.BindPFlag(DebugFlag, fs.Lookup(DebugFlag)); err != nil {
		return nil, err
	}

	if fs.Changed(ThreadsFlag) {
		if err := v.BindPFlag(ThreadsKey, fs.Lookup(ThreadsFlag)); err != nil {
			return nil, err
		}
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
	case len(file) == 0 && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)):
	default:
		return nil, err
	}

	return v, nil
}

// policyHook decodes a timeout.Policy from a name or from a boolean debug flag
func policyHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(timeout.Normal) {
		return data, nil
	} else if p, ok := data.(timeout.Policy); ok {
		return p, nil
	}

	switch from.Kind() {
	case reflect.String:
		return timeout.ParsePolicy(cast.ToString(data))

	case reflect.Bool:
		return timeout.FromDebug(cast.ToBool(data)), nil

	default:
		n, err := cast.ToIntE(data)
		return timeout.Policy(n), err
	}
}

// NewConfig unmarshals a Config from v
func NewConfig(v *viper.Viper) (c Config, err error) {
	err = v.Unmarshal(&c, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			policyHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))

	return
}
