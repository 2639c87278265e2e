// Package telemetry instruments outbound HTTP sessions with OpenTelemetry
// spans and debug logs.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"newsletter-scrapers/internal/domain/ports"
)

type spanKey struct{}

// requestSpan is closed by whichever resty hook fires first; resty may call
// OnError after OnAfterResponse for the same request.
type requestSpan struct {
	span trace.Span
	once sync.Once
}

func (s *requestSpan) finish(annotate func(trace.Span)) {
	s.once.Do(func() {
		annotate(s.span)
		s.span.End()
	})
}

func spanFrom(ctx context.Context) *requestSpan {
	if ctx == nil {
		return nil
	}
	rs, _ := ctx.Value(spanKey{}).(*requestSpan)
	return rs
}

// InstrumentResty opens a span for every request made by client and closes it
// when the response or error arrives. Cookies and tokens are never recorded.
func InstrumentResty(client *resty.Client, tracerName string, logger ports.Logger) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, span := tracer.Start(req.Context(), "http "+req.Method)
		req.SetContext(context.WithValue(ctx, spanKey{}, &requestSpan{span: span}))
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		if rs := spanFrom(res.Request.Context()); rs != nil {
			rs.finish(func(span trace.Span) {
				span.SetAttributes(
					attribute.String("http.method", res.Request.Method),
					attribute.String("http.url", res.Request.URL),
					attribute.Int("http.status_code", res.StatusCode()),
					attribute.Int("http.response_size", len(res.Body())),
				)
				if res.IsError() {
					span.SetStatus(codes.Error, res.Status())
				}
			})
		}

		if logger != nil {
			logger.Debug(res.Request.Context(), "http response",
				"method", res.Request.Method,
				"url", res.Request.URL,
				"status", res.StatusCode(),
				"duration", res.Time().Round(time.Millisecond),
			)
		}
		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		if rs := spanFrom(req.Context()); rs != nil {
			rs.finish(func(span trace.Span) {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				span.SetAttributes(attribute.String("http.url", req.URL))
			})
		}

		if logger != nil {
			logger.Debug(req.Context(), "http request failed",
				"method", req.Method,
				"url", req.URL,
				"error", fmt.Sprint(err),
			)
		}
	})
}
