package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestWebhookMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewWebhookMetrics(reg)

	metrics.IncEvent("invoice.payment_succeeded", OutcomeProcessed)
	metrics.IncEvent("invoice.payment_succeeded", OutcomeProcessed)
	metrics.IncEvent("product.created", OutcomeSkipped)
	metrics.IncRejected()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "stripe_webhook_events_total", "event_type", "invoice.payment_succeeded"); err != nil {
		t.Fatalf("fetch processed: %v", err)
	} else if got != 2 {
		t.Fatalf("expected processed=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stripe_webhook_events_total", "outcome", OutcomeSkipped); err != nil {
		t.Fatalf("fetch skipped: %v", err)
	} else if got != 1 {
		t.Fatalf("expected skipped=1, got %f", got)
	}

	mf := findMetricFamily(mfs, "stripe_webhook_rejected_total")
	if mf == nil {
		t.Fatal("rejected counter not exported")
	}
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected rejected=1, got %f", got)
	}
}

func TestWebhookMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewWebhookMetrics(nil)
	metrics.IncEvent("customer.subscription.updated", OutcomeProcessed)
	metrics.IncRejected()
}

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "subscription-reconcile"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cron_job_success", "job", job); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "cron_job_failure", "job", job); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
