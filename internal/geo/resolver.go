package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/skybow044/dalghaksub/internal/database"
)

// Resolver maps an IPv4 address to a two-letter country code.
// Any failure, including "no data", is returned as a *LookupError.
type Resolver interface {
	Resolve(ctx context.Context, ip string) (string, error)
}

// DefaultAPIURL is the default lookup service; {ip} is replaced by the address.
const DefaultAPIURL = "http://ip-api.com/json/{ip}?fields=status,message,countryCode"

// maxResponseSize caps the lookup service response body.
const maxResponseSize = 64 * 1024

// HTTPResolver queries a JSON lookup service.
type HTTPResolver struct {
	client      *http.Client
	urlTemplate string
	limiter     *rate.Limiter
}

// HTTPOption configures an HTTPResolver.
type HTTPOption func(*HTTPResolver)

// WithRateLimit allows at most n queries per minute. Zero disables the limit.
func WithRateLimit(n int) HTTPOption {
	return func(r *HTTPResolver) {
		if n > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(float64(n)/60), 1)
		}
	}
}

// NewHTTPResolver creates a resolver for urlTemplate, which must contain
// "{ip}". An empty template selects DefaultAPIURL.
func NewHTTPResolver(client *http.Client, urlTemplate string, opts ...HTTPOption) *HTTPResolver {
	if client == nil {
		client = http.DefaultClient
	}
	if urlTemplate == "" {
		urlTemplate = DefaultAPIURL
	}
	r := &HTTPResolver{
		client:      client,
		urlTemplate: urlTemplate,
		limiter:     rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// apiResponse covers the field names used by common lookup services.
type apiResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	CountryCode string `json:"countryCode"`
	CountryAlt  string `json:"country_code"`
}

// Resolve implements Resolver.
func (r *HTTPResolver) Resolve(ctx context.Context, ip string) (string, error) {
	fail := func(err error) (string, error) {
		return "", &LookupError{IP: ip, Backend: "http", Err: err}
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return fail(err)
	}

	target := strings.ReplaceAll(r.urlTemplate, "{ip}", url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fail(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(fmt.Errorf("status=%d", resp.StatusCode))
	}

	var body apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&body); err != nil {
		return fail(fmt.Errorf("invalid response: %w", err))
	}

	if body.Status != "" && body.Status != "success" {
		if body.Message != "" {
			return fail(fmt.Errorf("%w: %s", ErrNoCountry, body.Message))
		}
		return fail(fmt.Errorf("%w: status %q", ErrNoCountry, body.Status))
	}

	code := body.CountryCode
	if code == "" {
		code = body.CountryAlt
	}
	code = normalizeCode(code)
	if code == "" {
		return fail(ErrNoCountry)
	}
	return code, nil
}

// DBResolver answers from a local IPv4 range database.
type DBResolver struct {
	store *database.Store
}

// NewDBResolver creates a resolver backed by store.
func NewDBResolver(store *database.Store) *DBResolver {
	return &DBResolver{store: store}
}

// Resolve implements Resolver.
func (r *DBResolver) Resolve(ctx context.Context, ip string) (string, error) {
	code, found, err := r.store.CountryForIP(ctx, ip)
	if err != nil {
		return "", &LookupError{IP: ip, Backend: "database", Err: err}
	}
	code = normalizeCode(code)
	if !found || code == "" {
		return "", &LookupError{IP: ip, Backend: "database", Err: ErrNoCountry}
	}
	return code, nil
}

// PersistentResolver keeps successful answers of another resolver in
// the geo_lookups table, so later runs skip the backend.
type PersistentResolver struct {
	next   Resolver
	store  *database.Store
	source string
}

// NewPersistentResolver wraps next; source is recorded with each answer.
func NewPersistentResolver(next Resolver, store *database.Store, source string) *PersistentResolver {
	return &PersistentResolver{next: next, store: store, source: source}
}

// Resolve implements Resolver. Storage errors never hide a good answer.
func (r *PersistentResolver) Resolve(ctx context.Context, ip string) (string, error) {
	if code, found, err := r.store.CachedLookup(ctx, ip); err == nil && found {
		if code = normalizeCode(code); code != "" {
			return code, nil
		}
	}

	code, err := r.next.Resolve(ctx, ip)
	if err != nil {
		return "", err
	}
	_ = r.store.SaveLookup(ctx, ip, code, r.source) //nolint:errcheck // cache write is best effort
	return code, nil
}
