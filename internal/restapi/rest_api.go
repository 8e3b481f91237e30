package restapi

import (
	"net/http"
	"time"

	"bikewatch.bluebikes.org/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	limiter := NewRateLimitMiddleware(app.Config.RateLimit, time.Second)
	limiter.trustProxy = app.Config.TrustProxy
	return &RestAPI{
		Application: app,
		rateLimiter: limiter,
	}
}

// Close stops background work started by NewRestAPI.
func (api *RestAPI) Close() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}

// limited wraps an event endpoint with the per-client rate limiter.
func (api *RestAPI) limited(next http.Handler) http.Handler {
	if api.rateLimiter == nil {
		return next
	}
	return api.rateLimiter.Handler(next)
}
