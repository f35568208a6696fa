// Package metrics exposes Prometheus collectors for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services report to
type Recorder interface {
	RecordRegistration(outcome string)
	RecordRegistrationOrphan()
	RecordLogin(outcome string)
	RecordCatalogScan(pages, scanned int, truncated bool)
}

// Registration and login outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Collector is the Prometheus implementation of Recorder
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	registrations  *prometheus.CounterVec
	orphans        prometheus.Counter
	logins         *prometheus.CounterVec
	scanPages      prometheus.Histogram
	scannedItems   prometheus.Histogram
	scansTruncated prometheus.Counter
	registry       prometheus.Gatherer
}

// NewCollector creates the collectors and registers them with reg
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "movieapi_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "movieapi_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "movieapi_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		orphans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "movieapi_registration_orphans_total",
			Help: "Identity accounts created without a matching profile record",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "movieapi_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		scanPages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "movieapi_catalog_scan_pages",
			Help:    "Store scan calls per catalog query",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
		scannedItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "movieapi_catalog_scanned_items",
			Help:    "Store records inspected per catalog query",
			Buckets: prometheus.ExponentialBuckets(10, 4, 7),
		}),
		scansTruncated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "movieapi_catalog_scans_truncated_total",
			Help: "Catalog queries that hit the scan ceiling",
		}),
		registry: reg,
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.registrations,
		c.orphans,
		c.logins,
		c.scanPages,
		c.scannedItems,
		c.scansTruncated,
	)

	return c
}

func (c *Collector) RecordRegistration(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRegistrationOrphan() {
	c.orphans.Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordCatalogScan(pages, scanned int, truncated bool) {
	c.scanPages.Observe(float64(pages))
	c.scannedItems.Observe(float64(scanned))
	if truncated {
		c.scansTruncated.Inc()
	}
}

// ObserveHTTPRequest records one served request
func (c *Collector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Nop discards every measurement
type Nop struct{}

func (Nop) RecordRegistration(string)        {}
func (Nop) RecordRegistrationOrphan()        {}
func (Nop) RecordLogin(string)               {}
func (Nop) RecordCatalogScan(int, int, bool) {}
