package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	c, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	c.ModeActivated("draw")
	c.ModeActivated("draw")
	c.ModeActivated("modify")
	c.FeatureAdded()
	c.FeatureRemoved()
	c.Cleared()
	c.SetFeatureCount(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ModeActivations.WithLabelValues("draw")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ModeActivations.WithLabelValues("modify")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FeaturesAdded))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FeaturesRemoved))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Clears))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.Features))
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ModeActivated("draw")
		c.FeatureAdded()
		c.FeatureRemoved()
		c.Cleared()
		c.SetFeatureCount(1)
	})
}

func TestHandler(t *testing.T) {
	c, err := New(prometheus.NewRegistry())
	require.NoError(t, err)
	c.ModeActivated("select")

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `ottermap_mode_activations_total{mode="select"} 1`))
}
