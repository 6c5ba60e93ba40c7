package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTransition(t *testing.T) {
	before := testutil.ToFloat64(sessionTransitionsTotal.WithLabelValues("CLOSE", "rejected"))
	RecordTransition("CLOSE", "rejected")
	RecordTransition("CLOSE", "rejected")
	assert.Equal(t, before+2, testutil.ToFloat64(sessionTransitionsTotal.WithLabelValues("CLOSE", "rejected")))
}

func TestRecordAuditSinkError(t *testing.T) {
	before := testutil.ToFloat64(auditSinkErrorsTotal.WithLabelValues("postgres"))
	RecordAuditSinkError("postgres")
	assert.Equal(t, before+1, testutil.ToFloat64(auditSinkErrorsTotal.WithLabelValues("postgres")))
}

func TestRecordSeeded(t *testing.T) {
	before := testutil.ToFloat64(sessionsSeeded)
	RecordSeeded(8)
	assert.Equal(t, before+8, testutil.ToFloat64(sessionsSeeded))
}
