package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
	"service-parcel-platform/internal/testutil/testlog"
)

func TestObservability_UsesRoutePatternForLabels(t *testing.T) {
	t.Parallel()
	routePrefix := "/test/" + sanitizeLabel(t.Name())
	pattern := routePrefix + "/{id}"
	r := chi.NewRouter()
	r.Use(Observability(logx.Nop()))
	r.Get(pattern, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, routePrefix+"/123", nil)
	rec := httptest.NewRecorder()

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, pattern, "204"))
	beforeCount := histogramCount(t, httpRequestDuration, http.MethodGet, pattern, "204")

	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, pattern, "204"))
	afterCount := histogramCount(t, httpRequestDuration, http.MethodGet, pattern, "204")

	require.Equal(t, before+1, after)
	require.Equal(t, beforeCount+1, afterCount)
}

func TestObservability_ServerErrorsLoggedAsErrors(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	r := chi.NewRouter()
	r.Use(Observability(rec.Logger()))
	r.Get("/test/"+sanitizeLabel(t.Name()), func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	r.Get("/test/"+sanitizeLabel(t.Name())+"/ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, p := range []string{"", "/ok"} {
		req := httptest.NewRequest(http.MethodGet, "/test/"+sanitizeLabel(t.Name())+p, nil)
		req = req.WithContext(WithPrincipal(req.Context(), domain.Principal{Role: domain.RoleDriver}))
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	errs := rec.ByLevel("error")
	require.Len(t, errs, 1)
	status, _ := errs[0].Field("status")
	require.Equal(t, http.StatusInternalServerError, status)

	infos := rec.ByLevel("info")
	require.Len(t, infos, 1)
	status, _ = infos[0].Field("status")
	require.Equal(t, http.StatusOK, status)
	role, _ := infos[0].Field("role")
	require.Equal(t, "driver", role)
}

func TestPathPattern_Unmatched(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/nope/123", nil)
	require.Equal(t, "unmatched", pathPattern(req))
}

func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "\t", "_")
	return s
}

func histogramCount(t *testing.T, hv *prometheus.HistogramVec, method, path, status string) uint64 {
	t.Helper()

	obs, err := hv.GetMetricWithLabelValues(method, path, status)
	require.NoError(t, err)

	metric, ok := obs.(prometheus.Metric)
	require.True(t, ok, "must implement prometheus.Metric")

	m := &dto.Metric{}
	err = metric.Write(m)
	require.NoError(t, err)

	h := m.GetHistogram()
	require.NotNil(t, h)
	return h.GetSampleCount()
}
