package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Total number of asset uploads by result.",
		},
		[]string{"result"},
	)

	UploadBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_bytes_total",
			Help: "Total bytes written to the object store by uploads.",
		},
	)

	QRGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qr_generated_total",
			Help: "Total number of QR bindings generated.",
		},
	)

	ZipDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zip_downloads_total",
			Help: "Total number of gallery ZIP downloads by result.",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// MustRegister registers every collector with reg once per process.
func MustRegister(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			UploadsTotal,
			UploadBytesTotal,
			QRGeneratedTotal,
			ZipDownloadsTotal,
		)
	})
}
