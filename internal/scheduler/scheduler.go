package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"SalesSentinel/internal/anomaly"
	"SalesSentinel/internal/bi"
	"SalesSentinel/internal/cohort"
	"SalesSentinel/internal/collector"
	"SalesSentinel/internal/commission"
	"SalesSentinel/internal/forecast"
	"SalesSentinel/internal/metrics"
	"SalesSentinel/internal/model"
	"SalesSentinel/internal/notifier"
	"SalesSentinel/internal/pipeline"
	"SalesSentinel/internal/recorder"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Task names accepted by RunNow.
const (
	TaskDaily   = "daily"
	TaskWeekly  = "weekly"
	TaskMonthly = "monthly"
)

// Options tunes the analytics runs.
type Options struct {
	Anomaly         anomaly.Options
	HistoryDays     int
	ForecastType    model.ForecastType
	ForecastHorizon int
	CohortMonths    int
	PipelineMonths  int
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Notifier  notifier.Notifier
	Widgets   *bi.Service
	Options   Options
	Ctx       context.Context
	// Now is the clock used for run periods.
	Now func() time.Time

	tasks map[string]func(runID string) (string, error)
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, rec recorder.Recorder, n notifier.Notifier, widgets *bi.Service, opts Options) *Scheduler {
	s := &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Recorder:  rec,
		Notifier:  n,
		Widgets:   widgets,
		Options:   opts,
		Ctx:       ctx,
		Now:       func() time.Time { return time.Now().UTC() },
	}
	s.tasks = map[string]func(string) (string, error){
		TaskDaily:   s.dailyTask,
		TaskWeekly:  s.weeklyTask,
		TaskMonthly: s.monthlyTask,
	}
	return s
}

// RegisterAll registers the daily, weekly and monthly tasks.
func (s *Scheduler) RegisterAll(dailyCron, weeklyCron, monthlyCron string) error {
	for _, r := range []struct{ task, spec string }{
		{TaskDaily, dailyCron},
		{TaskWeekly, weeklyCron},
		{TaskMonthly, monthlyCron},
	} {
		task := r.task
		if _, err := s.Cron.AddFunc(r.spec, func() { s.run(task) }); err != nil {
			return fmt.Errorf("register %s task: %w", task, err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes a task immediately and returns its summary.
func (s *Scheduler) RunNow(task string) (string, error) {
	if _, ok := s.tasks[task]; !ok {
		return "", fmt.Errorf("task %q: %w", task, model.ErrInvalidRecord)
	}
	return s.run(task)
}

func (s *Scheduler) run(task string) (string, error) {
	runID := uuid.NewString()
	start := time.Now()
	log.Printf("[INFO] running %s task (run %s)", task, runID)

	summary, err := s.tasks[task](runID)
	metrics.TaskDurationSeconds.WithLabelValues(task).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TaskRunsTotal.WithLabelValues(task, "error").Inc()
		log.Printf("[ERROR] %s task (run %s): %v", task, runID, err)
		return "", err
	}
	metrics.TaskRunsTotal.WithLabelValues(task, "ok").Inc()
	s.trySend(summary)
	return summary, nil
}

// dailyTask detects anomalies over the recent history and scores past
// forecasts against the realized revenue.
func (s *Scheduler) dailyTask(runID string) (string, error) {
	now := s.Now()
	history, err := s.Collector.Metrics(s.Ctx, now, s.Options.HistoryDays)
	if err != nil {
		return "", err
	}

	anomalies := anomaly.NewDetector(s.Options.Anomaly).DetectAll(history)
	for _, a := range anomalies {
		metrics.AnomaliesDetectedTotal.WithLabelValues(string(a.MetricType), string(a.Severity)).Inc()
	}
	if err := s.Recorder.RecordAnomalies(runID, anomalies); err != nil {
		log.Printf("[ERROR] record anomalies: %v", err)
	}

	if err := s.reconcile(now, history); err != nil {
		log.Printf("[ERROR] reconcile forecasts: %v", err)
	}
	return notifier.FormatAnomalies(now, anomalies), nil
}

func (s *Scheduler) reconcile(now time.Time, history []model.DailyMetric) error {
	if len(history) == 0 {
		return nil
	}
	stored, err := s.Recorder.ListForecasts(history[0].Date, now)
	if err != nil {
		return err
	}
	actuals := make([]model.HistoryPoint, len(history))
	for i, m := range history {
		actuals[i] = model.HistoryPoint{Date: m.Date, Revenue: m.Revenue.InexactFloat64(), Orders: m.Orders}
	}
	updated := forecast.Reconcile(stored, actuals)
	for i, f := range updated {
		if f.ModelAccuracy == stored[i].ModelAccuracy {
			continue
		}
		if err := s.Recorder.UpdateForecastAccuracy(f); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) weeklyTask(runID string) (string, error) {
	now := s.Now()
	history, err := s.Collector.History(s.Ctx, now, s.Options.HistoryDays)
	if err != nil {
		return "", err
	}
	forecasts := forecast.Generate(history, s.Options.ForecastType, s.Options.ForecastHorizon, dayStart(now))
	metrics.ForecastsGeneratedTotal.WithLabelValues(string(s.Options.ForecastType)).Add(float64(len(forecasts)))
	if len(forecasts) == 0 {
		log.Printf("[WARN] only %d history points, no forecast generated", len(history))
	}
	if err := s.Recorder.RecordForecasts(runID, forecasts); err != nil {
		log.Printf("[ERROR] record forecasts: %v", err)
	}
	return notifier.FormatForecasts(forecasts), nil
}

// monthlyTask analyses the previous calendar month: cohorts acquired over
// the tracked months, rep commissions and the forward pipeline.
func (s *Scheduler) monthlyTask(runID string) (string, error) {
	now := s.Now()
	thisMonth := cohort.MonthStart(now)
	month := thisMonth.AddDate(0, -1, 0)
	monthEnd := thisMonth.AddDate(0, 0, -1)

	cohorts, err := s.Collector.Cohorts(s.Ctx, month.AddDate(0, -(s.Options.CohortMonths-1), 0), monthEnd, monthEnd)
	if err != nil {
		return "", err
	}
	cohortRecords := cohort.Analyze(cohorts)
	if err := s.Recorder.RecordCohorts(runID, cohortRecords); err != nil {
		log.Printf("[ERROR] record cohorts: %v", err)
	}

	sales, goals, err := s.Collector.Commissions(s.Ctx, month, monthEnd)
	if err != nil {
		return "", err
	}
	commissions, err := s.Recorder.RecordCommissions(runID, commission.CalculateAll(sales, month, monthEnd, goals))
	if err != nil {
		return "", fmt.Errorf("record commissions: %w", err)
	}

	open, closed, err := s.Collector.Pipeline(s.Ctx)
	if err != nil {
		return "", err
	}
	buckets := pipeline.Forecast(open, closed, now, s.Options.PipelineMonths)
	if err := s.Recorder.RecordPipeline(runID, buckets); err != nil {
		log.Printf("[ERROR] record pipeline: %v", err)
	}

	return notifier.FormatMonthly(month, cohortRecords, commissions, buckets), nil
}

// Approve moves pending commission records to approved. Nothing is written
// unless every id is known and pending.
func (s *Scheduler) Approve(ids []int64) error {
	records, err := s.loadCommissions(ids)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := commission.Approve(rec); err != nil {
			return err
		}
	}
	for _, rec := range records {
		if err := s.Recorder.UpdateCommissionStatus(rec.ID, model.CommissionPending, model.CommissionApproved); err != nil {
			return fmt.Errorf("update commission %d: %w", rec.ID, err)
		}
		log.Printf("[INFO] commission %d approved", rec.ID)
	}
	return nil
}

// Pay pays out approved commission records. A record another payout moved
// to paid after it was loaded is reported as skipped.
func (s *Scheduler) Pay(ids []int64) (*commission.PayoutResult, error) {
	records, err := s.Recorder.LoadCommissions(ids)
	if err != nil {
		return nil, fmt.Errorf("load commissions: %w", err)
	}
	res, err := commission.ProcessPayouts(records, ids)
	if err != nil {
		return nil, err
	}
	paid := res.Paid[:0]
	for _, id := range res.Paid {
		err := s.Recorder.UpdateCommissionStatus(id, model.CommissionApproved, model.CommissionPaid)
		if errors.Is(err, recorder.ErrStatusChanged) {
			res.Skipped[id] = fmt.Errorf("pay commission %d: %w", id, commission.ErrAlreadyPaid)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update commission %d: %w", id, err)
		}
		paid = append(paid, id)
		metrics.CommissionsPaidTotal.Inc()
		log.Printf("[INFO] commission %d paid", id)
	}
	res.Paid = paid
	for id, reason := range res.Skipped {
		log.Printf("[WARN] commission %d not paid: %v", id, reason)
	}
	return res, nil
}

func (s *Scheduler) loadCommissions(ids []int64) ([]*model.CommissionRecord, error) {
	records, err := s.Recorder.LoadCommissions(ids)
	if err != nil {
		return nil, fmt.Errorf("load commissions: %w", err)
	}
	found := make(map[int64]bool, len(records))
	for _, r := range records {
		found[r.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, fmt.Errorf("commission %d: %w", id, model.ErrInvalidRecord)
		}
	}
	return records, nil
}

// Widget renders a dashboard widget over the lookback period as JSON.
func (s *Scheduler) Widget(source string) (string, error) {
	ds, err := bi.ParseDataSource(source)
	if err != nil {
		return "", err
	}
	now := s.Now()
	data, err := s.Widgets.Widget(s.Ctx, bi.Request{
		Source: ds,
		From:   dayStart(now).AddDate(0, 0, -s.Options.Anomaly.LookbackDays+1),
		To:     now,
	})
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode widget: %w", err)
	}
	return string(out), nil
}

// HandleCommand processes an operator command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return usage
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	var (
		reply string
		err   error
	)
	switch fields[0] {
	case "/anomalies":
		reply, err = s.RunNow(TaskDaily)
	case "/forecast":
		reply, err = s.RunNow(TaskWeekly)
	case "/monthly":
		reply, err = s.RunNow(TaskMonthly)
	case "/approve":
		var ids []int64
		if ids, err = ParseIDs(arg); err == nil {
			if err = s.Approve(ids); err == nil {
				reply = fmt.Sprintf("Approved: %d", len(ids))
			}
		}
	case "/pay":
		var ids []int64
		if ids, err = ParseIDs(arg); err == nil {
			var res *commission.PayoutResult
			if res, err = s.Pay(ids); err == nil {
				reply = notifier.FormatPayout(res)
			}
		}
	case "/widget":
		reply, err = s.Widget(arg)
	default:
		return usage
	}
	if err != nil {
		return "error: " + err.Error()
	}
	return reply
}

const usage = `Available commands:
  /anomalies         run anomaly detection now
  /forecast          generate revenue forecasts now
  /monthly           run cohort, commission and pipeline analysis now
  /approve 1,2       approve pending commissions
  /pay 1,2           pay approved commissions
  /widget <source>   sales_summary | anomalies | forecast | cohorts | pipeline | commissions`

// ParseIDs parses a comma separated list of record ids.
func ParseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("no ids given")
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil || text == "" {
		return
	}
	if err := s.Notifier.Send(s.Ctx, text); err != nil {
		log.Printf("[ERROR] send summary: %v", err)
	}
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
