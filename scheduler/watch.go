// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Watch resizes the worker pool whenever the configuration file of v changes its thread count.
// Nothing is watched if v did not read a configuration file.
func (s *Service) Watch(v *viper.Viper) bool {
	if len(v.ConfigFileUsed()) == 0 {
		return false
	}

	v.OnConfigChange(s.configChanged(v))
	v.WatchConfig()
	return true
}

func (s *Service) configChanged(v *viper.Viper) func(fsnotify.Event) {
	return func(e fsnotify.Event) {
		threads, err := cast.ToIntE(v.Get(ThreadsKey))
		if err != nil {
			s.logger.Error("invalid thread count in configuration", zap.String("file", e.Name), zap.Error(err))
			return
		}

		s.logger.Info("configuration changed", zap.String("file", e.Name), zap.Stringer("op", e.Op), zap.Int("threads", threads))
		s.OnThreadsChanged(threads)
	}
}
