// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/paper-digest/internal/llm"
	"github.com/pdiddy/paper-digest/internal/secrets"
	"github.com/pdiddy/paper-digest/pkg/types"
)

const defaultUserAgent = "paper-digest/0.1 (+https://github.com/pdiddy/paper-digest)"

// setDefaults registers every configuration key with its default value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("search.query", "")
	v.SetDefault("search.terms", []string{"interpretability", "explainability", "xai"})
	v.SetDefault("search.categories", []string{"cs.AI", "cs.LG", "cs.CL"})
	v.SetDefault("search.page_size", 20)
	v.SetDefault("search.max_new", 10)
	v.SetDefault("search.politeness_delay", time.Second)
	v.SetDefault("search.max_stale_pages", 3)
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("search.user_agent", defaultUserAgent)

	v.SetDefault("summarize.provider", string(types.ProviderAnthropic))
	v.SetDefault("summarize.model", llm.DefaultClaudeModel)
	v.SetDefault("summarize.api_key", "")
	v.SetDefault("summarize.max_retries", 2)
	v.SetDefault("summarize.worker_budget", 3)
	v.SetDefault("summarize.max_output_tokens", 5000)
	v.SetDefault("summarize.backoff_unit", time.Second)
	v.SetDefault("summarize.timeout", 5*time.Minute)

	v.SetDefault("store.backend", string(types.StoreFile))
	v.SetDefault("store.dir", ".paper-digest")
	v.SetDefault("store.bucket", "")
	v.SetDefault("store.prefix", "")

	v.SetDefault("digest.dir", "digests")

	v.SetDefault("schedule.run_time", "08:00")
	v.SetDefault("schedule.weekends", false)
}

// loadPipelineConfig reads the configuration from v. The API key falls
// back to the environment and then the secrets directory when the config
// leaves it empty.
func loadPipelineConfig(v *viper.Viper, secretValues map[string]string) types.PipelineConfig {
	cfg := types.PipelineConfig{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("search.timeout"),
				UserAgent: v.GetString("search.user_agent"),
			},
			Query:           v.GetString("search.query"),
			Terms:           v.GetStringSlice("search.terms"),
			Categories:      v.GetStringSlice("search.categories"),
			PageSize:        v.GetInt("search.page_size"),
			MaxNew:          v.GetInt("search.max_new"),
			PolitenessDelay: v.GetDuration("search.politeness_delay"),
			MaxStalePages:   v.GetInt("search.max_stale_pages"),
		},
		Summarize: types.SummarizeConfig{
			AIConfig: types.AIConfig{
				HTTPConfig: types.HTTPConfig{
					Timeout: v.GetDuration("summarize.timeout"),
				},
				Provider:   types.Provider(strings.ToLower(v.GetString("summarize.provider"))),
				Model:      v.GetString("summarize.model"),
				APIKey:     v.GetString("summarize.api_key"),
				MaxRetries: v.GetInt("summarize.max_retries"),
			},
			WorkerBudget:    v.GetInt("summarize.worker_budget"),
			MaxOutputTokens: v.GetInt("summarize.max_output_tokens"),
			BackoffUnit:     v.GetDuration("summarize.backoff_unit"),
		},
		Store: types.StoreConfig{
			Backend: types.StoreBackend(strings.ToLower(v.GetString("store.backend"))),
			Dir:     v.GetString("store.dir"),
			Bucket:  v.GetString("store.bucket"),
			Prefix:  v.GetString("store.prefix"),
		},
		Digest: types.DigestConfig{
			Dir: v.GetString("digest.dir"),
		},
		Schedule: types.ScheduleConfig{
			RunTime:  v.GetString("schedule.run_time"),
			Weekends: v.GetBool("schedule.weekends"),
		},
	}

	if cfg.Summarize.APIKey == "" {
		cfg.Summarize.APIKey = secrets.Lookup(secretValues, secrets.KeyFor(cfg.Summarize.Provider))
	}
	return cfg
}

// cronSpec converts an HH:MM run time into a five-field cron expression
// firing on weekdays, or every day when weekends is set.
func cronSpec(runTime string, weekends bool) (string, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(runTime), ":")
	if !ok {
		return "", fmt.Errorf("run time %q: want HH:MM", runTime)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("run time %q: hour must be 00-23", runTime)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("run time %q: minute must be 00-59", runTime)
	}
	days := "1-5"
	if weekends {
		days = "*"
	}
	return fmt.Sprintf("%d %d * * %s", minute, hour, days), nil
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
