// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline daily at the configured time",
	Long: `Schedule stays in the foreground and performs a full run every weekday at
schedule.run_time (HH:MM, local time). Set schedule.weekends to run every
day. Stop it with Ctrl-C or SIGTERM; a run in progress finishes first.`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().Bool("now", false, "also run once immediately at startup")

	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadPipelineConfig(viper.GetViper(), loadedSecrets)

	spec, err := cronSpec(cfg.Schedule.RunTime, cfg.Schedule.Weekends)
	if err != nil {
		return err
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("parsing schedule %q: %w", spec, err)
	}

	job := func() {
		rep, err := runOnce(ctx, cfg, false, logger)
		if err != nil {
			logger.Error("scheduled run failed", zap.Error(err))
			return
		}
		rep.Print(cmd.OutOrStdout())
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(sched, cron.FuncJob(job))

	if now, _ := cmd.Flags().GetBool("now"); now {
		job()
	}

	c.Start()
	logger.Info("scheduler started", zap.String("cron", spec), zap.Time("next", sched.Next(time.Now())))

	<-ctx.Done()
	logger.Info("stopping scheduler")
	<-c.Stop().Done()
	return nil
}
