package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

// newTestProvider points an apiProvider at handler instead of the hosted API.
func newTestProvider(t *testing.T, handler http.HandlerFunc) *apiProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return &apiProvider{api: client.New("sk_test_123", &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})}
}

func TestDeleteCustomerDiscount(t *testing.T) {
	var method, path string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"di_1","object":"discount","deleted":true}`))
	})

	require.NoError(t, p.DeleteCustomerDiscount(context.Background(), "cus_1"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/v1/customers/cus_1/discount", path)
}

func TestDeleteCustomerDiscount_MissingIsTolerated(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such discount"}}`))
	})

	assert.NoError(t, p.DeleteCustomerDiscount(context.Background(), "cus_1"))
}

func TestDeleteCustomerDiscount_OtherErrorsSurface(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad customer"}}`))
	})

	err := p.DeleteCustomerDiscount(context.Background(), "cus_1")
	require.Error(t, err)
	assert.False(t, IsResourceMissing(err))
}
