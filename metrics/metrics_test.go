package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kasuganosora/vaultctl/audit"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAuditor struct{ entries []audit.Entry }

func (r *recordingAuditor) Log(e audit.Entry) { r.entries = append(r.entries, e) }

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("profile", 200, 120*time.Millisecond)
	m.ObserveRequest("profile", 204, 80*time.Millisecond)
	m.ObserveRequest("transfer", 503, time.Second)
	m.ObserveRequest("transfer", 0, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("profile", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("transfer", "5xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("transfer", "error")))
}

func TestAuditorCountsAndForwards(t *testing.T) {
	m := New()
	next := &recordingAuditor{}
	a := Auditor{Next: next, Metrics: m}

	a.Log(audit.Entry{Action: "to_vault", Duration: 300 * time.Millisecond})
	a.Log(audit.Entry{Action: "to_vault", Error: "DestinyNoRoomInDestination"})
	a.Log(audit.Entry{Action: "equip"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("to_vault", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("to_vault", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("equip", "ok")))
	assert.Len(t, next.entries, 3)

	// a nil Next only counts
	Auditor{Metrics: m}.Log(audit.Entry{Action: "equip"})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues("equip", "ok")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRequest("equip", 200, time.Millisecond)

	path := filepath.Join(t.TempDir(), "vaultctl.prom")
	require.NoError(t, m.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `vaultctl_api_requests_total{endpoint="equip",status="2xx"} 1`)
}
