// Package catalog talks to the subscription backend: lookup catalogs for
// the wizard steps, coupon validation, plan generation, and the final
// subscription-creation call. Responses are parsed defensively; the
// backend has a history of double-encoded bodies and inconsistent field
// names, and none of that is allowed past this package.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mealsub-admin/internal/common/database"
	stderrors "mealsub-admin/internal/common/errors"
	"mealsub-admin/internal/common/httpx"
	"mealsub-admin/internal/common/logger"
	"mealsub-admin/internal/common/observability"
	"mealsub-admin/internal/schedule"
)

// Client is the catalog surface the wizard consumes.
type Client interface {
	PlanCategories(ctx context.Context) ([]PlanCategory, error)
	Plans(ctx context.Context, categoryID int64) ([]Plan, error)
	Plan(ctx context.Context, id int64) (*Plan, error)
	Durations(ctx context.Context, planID int64) ([]DurationOption, error)
	MealTypes(ctx context.Context, planID int64) ([]MealType, error)
	DeliveryDays(ctx context.Context) ([]DeliveryDay, error)
	DislikeCategories(ctx context.Context) ([]DislikeCategory, error)
	Branches(ctx context.Context) ([]Branch, error)
	PaymentTypes(ctx context.Context) ([]PaymentType, error)
	TaxSettings(ctx context.Context) (TaxSettings, error)
	ApplyCoupon(ctx context.Context, code string, planID int64) (*CouponResult, error)
	CustomerInfo(ctx context.Context, customerID int64) (*CustomerInfo, error)
	GeneratePlan(ctx context.Context, req GeneratePlanRequest) (*schedule.GeneratedPlan, error)
	CreateSubscription(ctx context.Context, req *SubscriptionRequest) (*CreateResult, error)
}

// HTTPClient implements Client against the REST backend, with a Redis
// cache-aside for the slow-moving catalogs. Cache is optional; nil means
// every call goes to the backend.
type HTTPClient struct {
	http       *httpx.Client
	baseURL    string
	cache      *database.RedisClient
	cacheTTL   time.Duration
	defaultTax TaxSettings
	log        logger.Logger
}

func NewHTTPClient(http *httpx.Client, baseURL string, cache *database.RedisClient, cacheTTL time.Duration, defaultTax TaxSettings, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		http:       http,
		baseURL:    baseURL,
		cache:      cache,
		cacheTTL:   cacheTTL,
		defaultTax: defaultTax,
		log:        log.WithFields(map[string]interface{}{"component": "catalogClient"}),
	}
}

// ==========================
// Lookup Catalogs
// ==========================

func (c *HTTPClient) PlanCategories(ctx context.Context) ([]PlanCategory, error) {
	var out []PlanCategory
	err := c.cached(ctx, "planCategories", c.baseURL+"/api/plan-categories", &out)
	if err != nil {
		return nil, stderrors.NewCatalogLookupFailedError("planCategories", err)
	}
	return out, nil
}

func (c *HTTPClient) Plans(ctx context.Context, categoryID int64) ([]Plan, error) {
	var out []Plan
	url := fmt.Sprintf("%s/api/plans?categoryId=%d", c.baseURL, categoryID)
	if err := c.getJSON(ctx, "plans", url, &out); err != nil {
		return nil, stderrors.NewCatalogLookupFailedError("plans", err)
	}
	return out, nil
}

func (c *HTTPClient) Plan(ctx context.Context, id int64) (*Plan, error) {
	var out Plan
	url := fmt.Sprintf("%s/api/plans/%d", c.baseURL, id)
	if err := c.getJSON(ctx, "plan", url, &out); err != nil {
		return nil, stderrors.NewCatalogLookupFailedError("plan", err)
	}
	return &out, nil
}

// Durations degrades to the hardcoded default options when the backend
// call fails.
func (c *HTTPClient) Durations(ctx context.Context, planID int64) ([]DurationOption, error) {
	var out []DurationOption
	url := fmt.Sprintf("%s/api/plans/%d/durations", c.baseURL, planID)
	if err := c.getJSON(ctx, "durations", url, &out); err != nil {
		c.log.Warn("durations lookup failed, using defaults", map[string]interface{}{
			"planId": planID,
			"error":  err.Error(),
		})
		return DefaultDurations(), nil
	}
	return out, nil
}

func (c *HTTPClient) MealTypes(ctx context.Context, planID int64) ([]MealType, error) {
	var out []MealType
	url := fmt.Sprintf("%s/api/plans/%d/meal-types", c.baseURL, planID)
	if err := c.getJSON(ctx, "mealTypes", url, &out); err != nil {
		return nil, stderrors.NewCatalogLookupFailedError("mealTypes", err)
	}
	return out, nil
}

func (c *HTTPClient) DeliveryDays(ctx context.Context) ([]DeliveryDay, error) {
	var out []DeliveryDay
	if err := c.cached(ctx, "deliveryDays", c.baseURL+"/api/delivery-days", &out); err != nil {
		return nil, stderrors.NewCatalogLookupFailedError("deliveryDays", err)
	}
	return out, nil
}

func (c *HTTPClient) DislikeCategories(ctx context.Context) ([]DislikeCategory, error) {
	var out []DislikeCategory
	if err := c.getJSON(ctx, "dislikeCategories", c.baseURL+"/api/dislike-categories", &out); err != nil {
		return nil, stderrors.NewCatalogLookupFailedError("dislikeCategories", err)
	}
	return out, nil
}

func (c *HTTPClient) Branches(ctx context.Context) ([]Branch, error) {
	var out []Branch
	if err := c.cached(ctx, "branches", c.baseURL+"/api/branches", &out); err != nil {
		return nil, stderrors.NewCatalogLookupFailedError("branches", err)
	}
	return out, nil
}

// PaymentTypes degrades to the hardcoded default methods when the backend
// call fails.
func (c *HTTPClient) PaymentTypes(ctx context.Context) ([]PaymentType, error) {
	var out []PaymentType
	if err := c.getJSON(ctx, "paymentTypes", c.baseURL+"/api/payment-types", &out); err != nil {
		c.log.Warn("payment types lookup failed, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		return DefaultPaymentTypes(), nil
	}
	return out, nil
}

// TaxSettings degrades to the configured defaults; pricing must never be
// blocked on this lookup.
func (c *HTTPClient) TaxSettings(ctx context.Context) (TaxSettings, error) {
	var out TaxSettings
	if err := c.getJSON(ctx, "taxSettings", c.baseURL+"/api/settings/tax", &out); err != nil {
		c.log.Warn("tax settings lookup failed, using configured defaults", map[string]interface{}{
			"error": err.Error(),
		})
		return c.defaultTax, nil
	}
	return out, nil
}

// ==========================
// Business Lookups
// ==========================

// ApplyCoupon validates a coupon code against a plan. A rejected code is
// a business-rule error (COUPON_INVALID), distinct from a transient
// lookup failure.
func (c *HTTPClient) ApplyCoupon(ctx context.Context, code string, planID int64) (*CouponResult, error) {
	payload := map[string]interface{}{"code": code, "planId": planID}
	body, err := c.http.PostJSON(ctx, c.baseURL+"/api/coupons/apply", payload)
	if err != nil {
		return nil, stderrors.NewCatalogLookupFailedError("coupon", err)
	}

	var resp struct {
		Valid      bool    `json:"valid"`
		DiscountID int64   `json:"discountId"`
		Amount     float64 `json:"amount"`
	}
	if err := decodeLenient(body, &resp); err != nil {
		return nil, stderrors.NewCatalogLookupFailedError("coupon", err)
	}
	if !resp.Valid {
		return nil, stderrors.NewCouponInvalidError(code, "coupon code rejected by backend")
	}
	return &CouponResult{DiscountID: resp.DiscountID, Amount: resp.Amount}, nil
}

func (c *HTTPClient) CustomerInfo(ctx context.Context, customerID int64) (*CustomerInfo, error) {
	var out CustomerInfo
	url := fmt.Sprintf("%s/api/customers/%d/info", c.baseURL, customerID)
	if err := c.getJSON(ctx, "customerInfo", url, &out); err != nil {
		return nil, stderrors.NewCustomerInfoFetchFailedError(err)
	}
	return &out, nil
}

func (c *HTTPClient) GeneratePlan(ctx context.Context, req GeneratePlanRequest) (*schedule.GeneratedPlan, error) {
	start := time.Now()
	body, err := c.http.PostJSON(ctx, c.baseURL+"/api/plans/generate", req)
	observability.LookupDuration.WithLabelValues("generatePlan").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, stderrors.NewPlanGenerationFailedError(err)
	}

	var resp generatePlanResponse
	if err := decodeLenient(body, &resp); err != nil {
		return nil, stderrors.NewPlanGenerationFailedError(err)
	}
	return &schedule.GeneratedPlan{Meals: resp.Meals}, nil
}

func (c *HTTPClient) CreateSubscription(ctx context.Context, req *SubscriptionRequest) (*CreateResult, error) {
	body, err := c.http.PostJSON(ctx, c.baseURL+"/api/subscriptions", req)
	if err != nil {
		return nil, stderrors.NewSubmissionFailedError(err)
	}

	var out CreateResult
	if err := decodeLenient(body, &out); err != nil {
		return nil, stderrors.NewSubmissionFailedError(err)
	}
	return &out, nil
}

// ==========================
// Transport Helpers
// ==========================

func (c *HTTPClient) getJSON(ctx context.Context, kind, url string, out interface{}) error {
	start := time.Now()
	body, err := c.http.GetJSON(ctx, url)
	observability.LookupDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	return decodeLenient(body, out)
}

// cached is a cache-aside read for the slow-moving catalogs. Cache errors
// degrade to a direct backend call; a cache write failure only logs.
func (c *HTTPClient) cached(ctx context.Context, kind, url string, out interface{}) error {
	if c.cache == nil {
		return c.getJSON(ctx, kind, url, out)
	}

	key := "catalog:" + kind
	if raw, err := c.cache.Get(ctx, key); err == nil {
		if err := json.Unmarshal([]byte(raw), out); err == nil {
			return nil
		}
		c.log.Warn("cached catalog entry undecodable, refetching", map[string]interface{}{"key": key})
	}

	if err := c.getJSON(ctx, kind, url, out); err != nil {
		return err
	}

	if data, err := json.Marshal(out); err == nil {
		if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
			c.log.Warn("catalog cache write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return nil
}

// decodeLenient unmarshals a backend body that is sometimes a JSON value
// and sometimes that value double-encoded as a JSON string. A plain
// non-JSON string degrades to the zero value rather than erroring.
func decodeLenient(body []byte, out interface{}) error {
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err == nil {
		return nil
	}

	var wrapped string
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return fmt.Errorf("undecodable backend payload: %s", truncate(body, 120))
	}
	if wrapped == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(wrapped), out); err != nil {
		// String body that is not JSON: zero value, not a hard failure.
		return nil
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
