package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCollector struct {
	n   int64
	err error
}

func (f fakeCollector) Count(context.Context) (int64, error) {
	return f.n, f.err
}

// sample returns the value of the first series whose family name starts with prefix
// and whose labels include want
func sample(t *testing.T, oe *OTelExporter, prefix string, want map[string]string) (float64, bool) {
	t.Helper()
	families, err := oe.registry.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), prefix) {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue series
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue(), true
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue(), true
			}
		}
	}
	return 0, false
}

func TestOTelExporter(t *testing.T) {
	ctx := context.Background()

	t.Run("counts registrations", func(t *testing.T) {
		oe, err := NewOTelExporter(fakeCollector{})
		require.NoError(t, err)
		defer oe.Shutdown(ctx)

		oe.RecordRegistration(ctx)
		oe.RecordRegistration(ctx)

		v, ok := sample(t, oe, "webhook_registrations", nil)
		require.True(t, ok)
		assert.Equal(t, float64(2), v)
	})

	t.Run("counts forwards by outcome", func(t *testing.T) {
		oe, err := NewOTelExporter(fakeCollector{})
		require.NoError(t, err)
		defer oe.Shutdown(ctx)

		oe.RecordForward(ctx, "relayed")
		oe.RecordForward(ctx, "relayed")
		oe.RecordForward(ctx, "not_found")

		relayed, ok := sample(t, oe, "webhook_forwards", map[string]string{"outcome": "relayed"})
		require.True(t, ok)
		assert.Equal(t, float64(2), relayed)

		missing, ok := sample(t, oe, "webhook_forwards", map[string]string{"outcome": "not_found"})
		require.True(t, ok)
		assert.Equal(t, float64(1), missing)
	})

	t.Run("observes stored mappings", func(t *testing.T) {
		oe, err := NewOTelExporter(fakeCollector{n: 12})
		require.NoError(t, err)
		defer oe.Shutdown(ctx)

		v, ok := sample(t, oe, "webhook_mappings", nil)
		require.True(t, ok)
		assert.Equal(t, float64(12), v)
	})

	t.Run("serves prometheus text", func(t *testing.T) {
		oe, err := NewOTelExporter(nil)
		require.NoError(t, err)
		defer oe.Shutdown(ctx)

		oe.RecordForward(ctx, "relayed")

		srv := httptest.NewServer(oe.ServeHTTP())
		defer srv.Close()

		resp, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "webhook_forwards")
		assert.Contains(t, string(body), `outcome="relayed"`)
	})
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordRegistration(context.Background())
	r.RecordForward(context.Background(), "relayed")
}
