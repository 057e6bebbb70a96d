package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/insureline/portal/internal/api/metrics"
	"github.com/insureline/portal/internal/api/web"
	"github.com/insureline/portal/internal/core/binder"
	"github.com/insureline/portal/internal/core/service"
)

const (
	dashboardPage     = "dashboard"
	defaultFirstPaint = 3 * time.Second
	defaultRetryDelay = 5 * time.Second
)

// DashboardHandler serves the role dashboards. The first paint waits for
// every card to settle (bounded); a live stream then keeps the cards fresh
// for as long as the page stays open.
type DashboardHandler struct {
	gateways   service.Gateways
	refresh    time.Duration
	firstPaint time.Duration
	retryDelay time.Duration
	log        zerolog.Logger
}

func NewDashboardHandler(gw service.Gateways, refresh time.Duration, log zerolog.Logger) *DashboardHandler {
	if refresh <= 0 {
		refresh = binder.DefaultInterval
	}
	return &DashboardHandler{
		gateways:   gw,
		refresh:    refresh,
		firstPaint: defaultFirstPaint,
		retryDelay: defaultRetryDelay,
		log:        log,
	}
}

func (h *DashboardHandler) newBinder(c echo.Context, interval time.Duration) (*binder.Binder, error) {
	sess, err := currentSession(c)
	if err != nil {
		return nil, err
	}
	return binder.New(
		service.DashboardMetrics(sess, h.gateways, nil),
		binder.WithInterval(interval),
		binder.WithLogger(h.log),
		binder.WithObserver(func(metric string, r binder.Result) {
			metrics.MetricFetchesTotal.WithLabelValues(metric, string(r)).Inc()
		}),
	), nil
}

// Show renders the dashboard of the session's role.
func (h *DashboardHandler) Show(c echo.Context) error {
	b, err := h.newBinder(c, 0)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	b.Start(ctx)
	defer b.Stop()

	waitCtx, cancel := context.WithTimeout(ctx, h.firstPaint)
	defer cancel()
	cards := b.Wait(waitCtx)

	return render(c, http.StatusOK, dashboardPage, "Dashboard", "", web.DashboardView{
		Cards:     cards,
		StreamURL: c.Request().URL.Path + "/stream",
	})
}

// Stream pushes the card states as server-sent events. The binder lives as
// long as the connection: closing the page cancels every in-flight fetch.
// Failed cards are retried individually after retryDelay without waiting for
// the next full refresh.
//
// @Summary      Live dashboard cards
// @Tags         dashboard
// @Produce      text/event-stream
// @Param        role  path  string  true  "customer, agent or admin"
// @Success      200
// @Router       /{role}/dashboard/stream [get]
func (h *DashboardHandler) Stream(c echo.Context) error {
	b, err := h.newBinder(c, h.refresh)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	metrics.DashboardStreams.Inc()
	defer metrics.DashboardStreams.Dec()

	b.Start(ctx)
	defer b.Stop()

	var retry <-chan time.Time
	for {
		changed := b.Changed()
		cards := b.Snapshot()
		if err := writeEvent(res, "metrics", cards); err != nil {
			h.log.Debug().Err(err).Msg("dashboard stream closed")
			return nil
		}
		if retry == nil && len(failedCards(cards)) > 0 {
			retry = time.After(h.retryDelay)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		case <-retry:
			retry = nil
			for _, name := range failedCards(b.Snapshot()) {
				b.RefreshMetric(name)
			}
		}
	}
}

// failedCards lists the cards whose last fetch failed and is not being retried.
func failedCards(cards []binder.State) []string {
	var out []string
	for _, c := range cards {
		if c.Error != "" && !c.Loading {
			out = append(out, c.Name)
		}
	}
	return out
}

func writeEvent(res *echo.Response, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	res.Flush()
	return nil
}
