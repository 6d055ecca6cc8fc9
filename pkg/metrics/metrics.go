// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Mail metrics
	MailSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "secretsanta_mail_sent_total",
		Help: "Total number of mails handed to a transport successfully",
	}, []string{"transport"})
	MailFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "secretsanta_mail_failed_total",
		Help: "Total number of mails that could not be sent, by error code",
	}, []string{"transport", "code"})
	// MailSkipped counts mails rendered while no transport is configured.
	MailSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "secretsanta_mail_skipped_total",
		Help: "Total number of mails recorded locally because no transport is configured",
	}, []string{"template"})

	// Messaging code metrics
	MessagingCodesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "secretsanta_messaging_codes_issued_total",
		Help: "Total number of messaging codes issued",
	})
	MessagingCodesVerified = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "secretsanta_messaging_codes_verified_total",
		Help: "Total number of messaging code verification attempts by result",
	}, []string{"result"})

	HTTPRateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "secretsanta_http_ratelimited_total",
		Help: "Total number of requests rejected by a rate limiter",
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(MailSent)
	prometheus.MustRegister(MailFailed)
	prometheus.MustRegister(MailSkipped)
	prometheus.MustRegister(MessagingCodesIssued)
	prometheus.MustRegister(MessagingCodesVerified)
	prometheus.MustRegister(HTTPRateLimited)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
