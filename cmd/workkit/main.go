// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/xmidt-org/workkit/pool"
	"github.com/xmidt-org/workkit/scheduler"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const statsInterval = time.Minute

// reportStats periodically logs the state of every pool of the service
func reportStats(s *scheduler.Service, logger *zap.Logger) error {
	_, err := s.ScheduleAtFixedRate(
		context.Background(),
		pool.RunnableFunc(func(context.Context) {
			for _, st := range s.Stats() {
				logger.Info("pool stats",
					zap.String("pool", st.Name),
					zap.Int("threads", st.Threads),
					zap.Int("workers", st.Workers),
					zap.Int("active", st.Active),
					zap.Int("queued", st.Queued),
					zap.Int64("completed", st.Completed),
					zap.Int64("rejected", st.Rejected),
				)
			}
		}),
		statsInterval,
		statsInterval,
	)

	return err
}

func main() {
	fs := scheduler.NewFlagSet(scheduler.ApplicationName)
	v, err := scheduler.NewViper(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to configure %s: %s\n", scheduler.ApplicationName, err)
		os.Exit(1)
	}

	app := fx.New(
		fx.Supply(v),
		scheduler.Provide(),
		fx.Invoke(reportStats),
	)

	app.Run()
}
