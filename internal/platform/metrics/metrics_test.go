package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveMutationCountsOnlySuccess(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveMutation("create", time.Now(), nil)
	m.ObserveMutation("create", time.Now(), errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Mutations.WithLabelValues("create")))
}
