// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TokenVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_token_verifications_total",
		Help: "Bearer token checks by result (ok, missing, or the rejection reason)",
	}, []string{"result"})

	MembershipChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_membership_checks_total",
		Help: "Chat membership guard decisions",
	}, []string{"result"})

	// outcome: stored, deduplicated, failed
	FileUploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_file_uploads_total",
		Help: "Uploaded attachments by write outcome",
	}, []string{"outcome"})

	FileUploadBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_file_upload_bytes_total",
		Help: "Bytes written to the blob store",
	})

	FileVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_file_verifications_total",
		Help: "Background blob integrity checks by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		TokenVerifications, MembershipChecks,
		FileUploads, FileUploadBytes, FileVerifications,
	)
}
