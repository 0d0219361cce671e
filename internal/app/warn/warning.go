package warn

import (
	log "github.com/sirupsen/logrus"

	"server-profit-app/internal/pkg/metrics"
)

// Must logs a failed background job and counts it. err is returned as is.
func Must(desc string, err error) error {
	if err != nil {
		log.Errorf("%s failed: %+v", desc, err)
		metrics.JobFailuresTotal.WithLabelValues(desc).Inc()
	}
	return err
}
