package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SalesSentinel/internal/anomaly"
	"SalesSentinel/internal/bi"
	"SalesSentinel/internal/collector"
	"SalesSentinel/internal/config"
	"SalesSentinel/internal/notifier"
	"SalesSentinel/internal/recorder"
	"SalesSentinel/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	runTask := flag.String("run", "", "run one task (daily, weekly, monthly) and exit")
	approve := flag.String("approve", "", "approve commission ids (comma separated) and exit")
	pay := flag.String("pay", "", "pay commission ids (comma separated) and exit")
	console := flag.Bool("console", false, "read operator commands from stdin")
	flag.Parse()

	log.Println("[INFO] SalesSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init source
	src, err := collector.OpenSQLSource(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("[FATAL] open data source: %v", err)
	}
	defer src.Close()
	if err := src.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("[FATAL] ensure source schema: %v", err)
	}
	log.Printf("[INFO] data source: %s", src.Name())
	col := collector.NewCollector(src)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	detectorOpts := anomaly.DefaultOptions()
	detectorOpts.LookbackDays = cfg.Analytics.LookbackDays
	detectorOpts.StdThreshold = cfg.Analytics.StdThreshold
	detectorOpts.HighStdThreshold = cfg.Analytics.HighStdThreshold
	detectorOpts.TrendThreshold = cfg.Analytics.TrendThreshold
	detectorOpts.HighTrendThreshold = cfg.Analytics.HighTrendThreshold

	var cache bi.Cache = bi.NoopCache{}
	if cfg.Cache.Size > 0 {
		cache = bi.NewLRUCache(cfg.Cache.Size, cfg.Cache.TTL)
	}
	widgets := bi.NewService(col, cache, bi.Options{
		Anomaly:         detectorOpts,
		ForecastType:    cfg.ForecastType(),
		ForecastHorizon: cfg.Analytics.ForecastHorizon,
		PipelineMonths:  cfg.Analytics.PipelineMonths,
	})

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, col, rec, notifier.NewLogNotifier(), widgets, scheduler.Options{
		Anomaly:         detectorOpts,
		HistoryDays:     cfg.Analytics.HistoryDays,
		ForecastType:    cfg.ForecastType(),
		ForecastHorizon: cfg.Analytics.ForecastHorizon,
		CohortMonths:    cfg.Analytics.CohortMonths,
		PipelineMonths:  cfg.Analytics.PipelineMonths,
	})

	// One-shot modes
	if *runTask != "" || *approve != "" || *pay != "" {
		if err := oneShot(sched, *runTask, *approve, *pay); err != nil {
			log.Fatalf("[FATAL] %v", err)
		}
		return
	}

	if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.WeeklyCron, cfg.Schedule.MonthlyCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] metrics server: %v", err)
		}
	}()
	log.Printf("[INFO] metrics listening on %s", cfg.Metrics.Addr)

	if *console {
		go readCommands(ctx, sched)
		log.Println("[INFO] operator console started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing daily task now")
		go sched.RunNow(scheduler.TaskDaily)
	}

	log.Println("[INFO] SalesSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] metrics server shutdown: %v", err)
	}
	log.Println("[INFO] SalesSentinel stopped")
}

func oneShot(sched *scheduler.Scheduler, task, approve, pay string) error {
	if task != "" {
		summary, err := sched.RunNow(task)
		if err != nil {
			return fmt.Errorf("run %s: %w", task, err)
		}
		fmt.Println(summary)
	}
	if approve != "" {
		ids, err := scheduler.ParseIDs(approve)
		if err != nil {
			return err
		}
		if err := sched.Approve(ids); err != nil {
			return fmt.Errorf("approve: %w", err)
		}
		fmt.Printf("Approved: %d\n", len(ids))
	}
	if pay != "" {
		ids, err := scheduler.ParseIDs(pay)
		if err != nil {
			return err
		}
		res, err := sched.Pay(ids)
		if err != nil {
			return fmt.Errorf("pay: %w", err)
		}
		fmt.Print(notifier.FormatPayout(res))
	}
	return nil
}

func readCommands(ctx context.Context, sched *scheduler.Scheduler) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if reply := sched.HandleCommand(scanner.Text()); reply != "" {
			fmt.Println(reply)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("[ERROR] read commands: %v", err)
	}
}
