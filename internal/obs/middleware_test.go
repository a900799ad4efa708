package obs_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kursus/internal/obs"
)

func TestStatusRecorderCapturesStatusAndBytes(t *testing.T) {
	rr := httptest.NewRecorder()
	recorder := obs.NewStatusRecorder(rr)

	recorder.WriteHeader(http.StatusTeapot)
	n, err := recorder.Write([]byte("short and stout"))
	require.NoError(t, err)
	require.Equal(t, 15, n)
	require.Equal(t, http.StatusTeapot, recorder.Status())
	require.EqualValues(t, 15, recorder.BytesWritten())
}

func TestRoutePatternRoundTrip(t *testing.T) {
	ctx := obs.WithRoutePattern(context.Background(), "/create-checkout-session")
	require.Equal(t, "/create-checkout-session", obs.RoutePatternFromContext(ctx))
	require.Empty(t, obs.RoutePatternFromContext(context.Background()))
}
