// Package gateway issues authenticated requests to the memo server and turns
// its responses into domain values and typed errors.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"mymemo-client/internal/config"
	"mymemo-client/internal/credentials"
	apperrors "mymemo-client/internal/errors"
	"mymemo-client/internal/observability"
	"mymemo-client/pkg/api"
)

const tracerName = "mymemo-client/internal/gateway"

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// Gateway is the client side of the memo server's HTTP API.
type Gateway struct {
	baseURL *url.URL
	client  *http.Client
	creds   credentials.Store
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *observability.Collector
	tracer  trace.Tracer
	now     func() time.Time

	mu             sync.RWMutex
	onUnauthorized []func(context.Context)
}

// Option customises a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithMetrics records request metrics on m.
func WithMetrics(m *observability.Collector) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(g *Gateway) { g.tracer = t }
}

// WithClock replaces time.Now when checking token expiry.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// New creates a gateway for the API described by cfg.
func New(cfg config.API, creds credentials.Store, opts ...Option) (*Gateway, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}

	g := &Gateway{
		baseURL: base,
		client:  &http.Client{Timeout: cfg.Timeout},
		creds:   creds,
		logger:  zap.NewNop(),
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.breaker = newBreaker(cfg.CircuitBreaker, g.logger)

	return g, nil
}

func newBreaker(cfg config.CircuitBreaker, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "memo-api",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Only transport failures and 5xx responses say anything about the
		// server's health; 4xx answers and cancelled requests do not.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			appErr := apperrors.GetAppError(err)
			return appErr != nil && appErr.HTTPStatus >= 400 && appErr.HTTPStatus < 500
		},
	})
}

// OnUnauthorized registers fn to run whenever the server rejects the stored
// token or the token is found to be expired.
func (g *Gateway) OnUnauthorized(fn func(ctx context.Context)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onUnauthorized = append(g.onUnauthorized, fn)
}

func (g *Gateway) unauthorized(ctx context.Context) {
	g.mu.RLock()
	hooks := make([]func(context.Context), len(g.onUnauthorized))
	copy(hooks, g.onUnauthorized)
	g.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx)
	}
}

// request describes one API call. route is the templated path used for
// metrics and span names.
type request struct {
	method string
	route  string
	path   string
	body   interface{}
	auth   bool
}

func (g *Gateway) do(ctx context.Context, r request, out interface{}) (err error) {
	ctx, span := g.tracer.Start(ctx, r.method+" "+r.route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.method),
			attribute.String("http.route", r.route),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, apperrors.UserMessage(err))
		}
		span.End()
	}()

	req, err := g.newRequest(ctx, r)
	if err != nil {
		return err
	}
	requestID := req.Header.Get("X-Request-ID")
	span.SetAttributes(attribute.String("request.id", requestID))

	start := time.Now()
	status := "error"
	defer func() {
		g.metrics.RecordRequest(r.method, r.route, status, time.Since(start))
	}()

	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.roundTrip(req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			g.logger.Warn("Circuit breaker rejected request",
				zap.String("route", r.route),
				zap.Error(err),
			)
			return apperrors.NewNetworkError("Service temporarily unavailable - too many failures", err)
		}
		if appErr := apperrors.GetAppError(err); appErr != nil && appErr.HTTPStatus != 0 {
			status = strconv.Itoa(appErr.HTTPStatus)
			span.SetAttributes(attribute.Int("http.response.status_code", appErr.HTTPStatus))
			if apperrors.IsAuth(err) && r.auth {
				g.unauthorized(ctx)
			}
		}
		g.logger.Debug("Request failed",
			zap.String("method", r.method),
			zap.String("route", r.route),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return err
	}

	resp := res.(*response)
	status = strconv.Itoa(resp.status)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.status))
	g.logger.Debug("Request completed",
		zap.String("method", r.method),
		zap.String("route", r.route),
		zap.Int("status", resp.status),
		zap.String("request_id", requestID),
		zap.Duration("duration", time.Since(start)),
	)

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return apperrors.NewNetworkError("unreadable response from server", err)
	}
	return nil
}

func (g *Gateway) newRequest(ctx context.Context, r request) (*http.Request, error) {
	ref, err := url.Parse(r.path)
	if err != nil {
		return nil, fmt.Errorf("parse request path: %w", err)
	}

	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, g.baseURL.ResolveReference(ref).String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if r.auth {
		creds, err := g.creds.Get(ctx)
		switch {
		case errors.Is(err, credentials.ErrNoCredentials):
		case err != nil:
			return nil, fmt.Errorf("read credentials: %w", err)
		case credentials.TokenExpired(creds.Token, g.now()):
			g.unauthorized(ctx)
			return nil, apperrors.NewAuthError("Your session has expired, please log in again.")
		default:
			req.Header.Set("Authorization", "Token "+creds.Token)
		}
	}
	return req, nil
}

type response struct {
	status int
	body   []byte
}

// roundTrip sends req and classifies the outcome. Transport failures and
// non-2xx statuses come back as *AppError.
func (g *Gateway) roundTrip(req *http.Request) (*response, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.NewNetworkError("could not reach the memo server", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apperrors.NewNetworkError("failed to read response", err)
		}
		return &response{status: resp.StatusCode, body: body}, nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, classify(resp.StatusCode, raw)
}

// classify maps an error response to the client's error kinds, keeping the
// server's message when it sent one.
func classify(status int, body []byte) *apperrors.AppError {
	var payload api.ErrorResponse
	_ = json.Unmarshal(body, &payload)
	msg := payload.Message()

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.NewAuthError(msg).WithStatus(status)
	case http.StatusNotFound, http.StatusConflict, http.StatusGone:
		return apperrors.NewConflictOrNotFoundError(msg, status)
	default:
		return apperrors.NewServerError(msg, status)
	}
}
