package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTransition("approve", "success")
	c.RecordTransition("approve", "success")
	c.RecordTransition("reject", "invalid")
	c.RecordView()
	c.RecordUpload("featured", 1024)
	c.RecordHTTPRequest("GET", "/api/articles", "200", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ArticleTransitionsTotal.WithLabelValues("approve", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ArticleTransitionsTotal.WithLabelValues("reject", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ArticleViewsTotal))
	assert.Equal(t, 1024.0, testutil.ToFloat64(c.UploadBytes))

	open := 3
	c.RegisterSubscriptionGauge("articles", func() int { return open })

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, family := range families {
		if family.GetName() == "feed_subscriptions_active" {
			found = true
			assert.Equal(t, 3.0, family.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found)
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordTransition("approve", "success")
		c.RecordView()
		c.RecordViewAction("archive", "cancelled")
		c.RegisterSubscriptionGauge("users", func() int { return 0 })
	})
}
