package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/mysched/admin-console/internal/apierr"
	"github.com/mysched/admin-console/internal/infra"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ProbeResult — что увидела проба вебхука оператора.
type ProbeResult struct {
	OK         bool  `json:"ok"`
	Status     int   `json:"status"`
	DurationMs int64 `json:"duration_ms"`
}

// Prober дергает внешний вебхук с тремя слоями защиты: исходящий
// лимитер, ретраи с бэкоффом и предохранитель. Чужой упавший endpoint
// не должен ни зависнуть в наших воркерах, ни долбиться в цикле.
type Prober struct {
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	retries uint
	logger  *zap.Logger
}

func NewProber(cfg infra.WebhookConfig, logger *zap.Logger) *Prober {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "webhook-probe",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует «закрыться»
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Prober{
		client:  &http.Client{Timeout: cfg.Timeout},
		cb:      cb,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		retries: cfg.MaxRetries,
		logger:  logger.Named("webhook-probe"),
	}
}

// Probe выполняет HEAD-запрос к указанному URL. Ошибки восходящей
// стороны приходят как dependency_unavailable с уточнённым статусом.
func (p *Prober) Probe(ctx context.Context, rawURL string) (*ProbeResult, error) {
	target, err := url.Parse(rawURL)
	if err != nil || target.Host == "" || (target.Scheme != "http" && target.Scheme != "https") {
		return nil, apierr.Validation("A valid http(s) webhook URL is required.")
	}

	// 1. Исходящий Rate Limiter
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, apierr.Classify(err)
	}

	var result *ProbeResult

	// 2. Circuit Breaker вокруг ретраев
	_, err = p.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(p.retries),
			retry.LastErrorOnly(true),
		)
		return nil, r.Do(func() error {
			res, callErr := p.probeOnce(ctx, target.String())
			if callErr != nil {
				return callErr
			}
			result = res
			return nil
		})
	})

	if err != nil {
		return nil, p.mapProbeError(target.Host, err)
	}
	return result, nil
}

func (p *Prober) probeOnce(ctx context.Context, target string) (*ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("webhook responded with %d", resp.StatusCode)
	}

	return &ProbeResult{
		OK:         resp.StatusCode < 400,
		Status:     resp.StatusCode,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// mapProbeError уточняет статус dependency_unavailable по причине:
// открытый предохранитель — 503, таймаут — 504, остальное — 502.
func (p *Prober) mapProbeError(host string, err error) error {
	p.logger.Warn("webhook probe failed", zap.String("host", host), zap.Error(err))

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apierr.Unavailable(http.StatusServiceUnavailable, "Webhook checks are temporarily paused after repeated failures.", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return apierr.Unavailable(http.StatusGatewayTimeout, "Webhook did not respond in time.", err)
	}
	return apierr.Unavailable(http.StatusBadGateway, "Webhook is unreachable.", err)
}
