package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"mealsub-admin/internal/common/database"
	stderrors "mealsub-admin/internal/common/errors"
	"mealsub-admin/internal/common/httpx"
	"mealsub-admin/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Setup
// ==========================

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewHTTPClient(
		httpx.NewClient(2*time.Second, "test-key"),
		srv.URL,
		nil,
		time.Minute,
		TaxSettings{Active: true, IncludedInPrice: true, Percent: 0.14},
		logger.NewTestLogger(t),
	)
	return c, srv
}

// ==========================
// Defensive Decoding
// ==========================

func TestDecodeLenient(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []PlanCategory
		wantErr  bool
	}{
		{
			name:     "plain json array",
			body:     `[{"id":1,"name":"Keto"}]`,
			expected: []PlanCategory{{ID: 1, Name: "Keto"}},
		},
		{
			name:     "double encoded json",
			body:     `"[{\"id\":2,\"name\":\"Lite\"}]"`,
			expected: []PlanCategory{{ID: 2, Name: "Lite"}},
		},
		{
			name:     "non json string degrades to zero value",
			body:     `"service warming up"`,
			expected: nil,
		},
		{
			name:     "empty body degrades to zero value",
			body:     "",
			expected: nil,
		},
		{
			name:    "raw garbage errors",
			body:    "{{{nope",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out []PlanCategory
			err := decodeLenient([]byte(tt.body), &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestCustomerInfoNormalizesMisspelledAddress(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":5,"name":"Omar","adress":"12 Nile St","driverId":3,"branchId":2,"areaId":9}`))
	}))

	info, err := c.CustomerInfo(context.Background(), 5)

	assert.NoError(t, err)
	assert.Equal(t, "12 Nile St", info.Address)
	assert.Equal(t, int64(3), info.DriverID)
}

func TestDislikeCategoryNameKeyVariants(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":1,"name":"Seafood"},
			{"id":2,"dislikeCategoryName":"Dairy"},
			{"id":3,"disLikeCategoryName":"Nuts"}
		]`))
	}))

	cats, err := c.DislikeCategories(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []DislikeCategory{
		{ID: 1, Name: "Seafood"},
		{ID: 2, Name: "Dairy"},
		{ID: 3, Name: "Nuts"},
	}, cats)
}

// ==========================
// Fallbacks
// ==========================

func TestPaymentTypesFallsBackOnBackendFailure(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	types, err := c.PaymentTypes(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, DefaultPaymentTypes(), types)
}

func TestDurationsFallBackOnBackendFailure(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	durations, err := c.Durations(context.Background(), 10)

	assert.NoError(t, err)
	assert.Equal(t, DefaultDurations(), durations)
}

func TestTaxSettingsFallBackToConfiguredDefaults(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	tax, err := c.TaxSettings(context.Background())

	assert.NoError(t, err)
	assert.True(t, tax.Active)
	assert.True(t, tax.IncludedInPrice)
	assert.Equal(t, 0.14, tax.Percent)
}

func TestMealTypesLookupFailureIsAnError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.MealTypes(context.Background(), 10)

	assert.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeCatalogLookupFailed))
}

// ==========================
// Coupons
// ==========================

func TestApplyCoupon(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode stderrors.ErrorCode
		amount   float64
	}{
		{
			name:   "valid coupon",
			body:   `{"valid":true,"discountId":77,"amount":25}`,
			amount: 25,
		},
		{
			name:     "rejected coupon",
			body:     `{"valid":false}`,
			wantCode: stderrors.ErrCodeCouponInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))

			result, err := c.ApplyCoupon(context.Background(), "SUMMER", 10)

			if tt.wantCode != "" {
				assert.Error(t, err)
				assert.True(t, stderrors.IsCode(err, tt.wantCode))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, int64(77), result.DiscountID)
			assert.Equal(t, tt.amount, result.Amount)
		})
	}
}

// ==========================
// Cache-Aside
// ==========================

func TestCachedCatalogServesSecondReadFromRedis(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte(`[{"id":1,"name":"Downtown"}]`))
	}))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	c := NewHTTPClient(
		httpx.NewClient(2*time.Second, ""),
		srv.URL,
		database.NewRedisFromClient(rdb),
		time.Minute,
		TaxSettings{},
		logger.NewTestLogger(t),
	)

	first, err := c.Branches(context.Background())
	assert.NoError(t, err)
	second, err := c.Branches(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

// ==========================
// Epochs
// ==========================

func TestEpochsDiscardStaleResponses(t *testing.T) {
	e := NewEpochs()

	first := e.Next("plans")
	second := e.Next("plans")

	assert.True(t, e.Stale("plans", first))
	assert.False(t, e.Stale("plans", second))
	assert.Equal(t, second, e.Current("plans"))
}

func TestEpochsAreIndependentPerKind(t *testing.T) {
	e := NewEpochs()

	plans := e.Next("plans")
	e.Next("mealTypes")

	assert.False(t, e.Stale("plans", plans))
}
