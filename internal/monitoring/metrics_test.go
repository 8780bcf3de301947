package monitoring

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/v1/teams", "200"))
	TrackRequest(http.MethodGet, "/v1/teams", http.StatusOK, 5*time.Millisecond)
	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/v1/teams", "200"))
	assert.Equal(t, before+1, after)
}

func TestCounters(t *testing.T) {
	reserved := testutil.ToFloat64(seatsReserved)
	TrackReserved(3)
	assert.Equal(t, reserved+3, testutil.ToFloat64(seatsReserved))

	failed := testutil.ToFloat64(eventsPublished.WithLabelValues("error"))
	TrackPublish(false)
	assert.Equal(t, failed+1, testutil.ToFloat64(eventsPublished.WithLabelValues("error")))
}
