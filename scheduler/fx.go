// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"context"

	"github.com/spf13/viper"
	"github.com/xmidt-org/workkit/lock"
	"github.com/xmidt-org/workkit/pool"
	"github.com/xmidt-org/workkit/retry"
	"github.com/xmidt-org/workkit/xmetrics"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// ServiceIn is the set of components needed to build a Service
type ServiceIn struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Registry  xmetrics.Registry
	Lifecycle fx.Lifecycle
	Options   []Option `optional:"true"`
}

// ProvideLogger builds the application logger from the logging configuration
func ProvideLogger(c Config) (*zap.Logger, error) {
	return c.Logging.Build()
}

// ProvideRegistry builds a metrics registry holding every metric of this module
func ProvideRegistry(c Config) (xmetrics.Registry, error) {
	return xmetrics.NewRegistry(&c.Metrics, lock.Metrics, retry.Metrics, pool.Metrics, Metrics)
}

// ProvideService builds a Service bound to the application lifecycle
func ProvideService(in ServiceIn) *Service {
	s := New(in.Config, in.Logger, in.Registry, in.Options...)
	in.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start()
			return nil
		},
		OnStop: s.Stop,
	})

	return s
}

// Provide is the fx module for a scheduler.  The application must supply a *viper.Viper,
// typically from NewViper.
func Provide() fx.Option {
	return fx.Options(
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l}
		}),
		fx.Provide(
			NewConfig,
			ProvideLogger,
			ProvideRegistry,
			ProvideService,
		),
		fx.Invoke(func(v *viper.Viper, s *Service) {
			s.Watch(v)
		}),
	)
}
