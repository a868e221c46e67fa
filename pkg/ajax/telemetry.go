package ajax

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelMetric "go.opentelemetry.io/otel/metric"
	metricNoop "go.opentelemetry.io/otel/metric/noop"
	otelTrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	traceAppName    = "github.com/keboola/go-ajax"
	meterPrefix     = "keboola.go.ajax."
	requestSpanName = meterPrefix + "request"
	attrMethod      = attribute.Key("ajax.request.method")
	attrURL         = attribute.Key("ajax.request.url")
	attrEndpoint    = attribute.Key("ajax.endpoint")
	attrPolicy      = attribute.Key("ajax.policy")
	attrCallID      = attribute.Key("ajax.call.id")
	attrCanceled    = attribute.Key("ajax.call.canceled")
	attrRedirect    = attribute.Key("ajax.response.redirect")
)

type telemetry struct {
	tracer     otelTrace.Tracer
	attrs      []attribute.KeyValue
	inFlight   otelMetric.Int64UpDownCounter
	started    otelMetric.Int64Counter
	suppressed otelMetric.Int64Counter
	canceled   otelMetric.Int64Counter
}

func newTelemetry(tracerProvider otelTrace.TracerProvider, meterProvider otelMetric.MeterProvider, endpoint string, policy Policy) *telemetry {
	if tracerProvider == nil {
		tracerProvider = noop.NewTracerProvider()
	}
	if meterProvider == nil {
		meterProvider = metricNoop.NewMeterProvider()
	}
	meter := meterProvider.Meter(traceAppName)
	return &telemetry{
		tracer:     tracerProvider.Tracer(traceAppName),
		attrs:      []attribute.KeyValue{attrEndpoint.String(endpoint), attrPolicy.String(policy.String())},
		inFlight:   mustInstrument(meter.Int64UpDownCounter(meterPrefix+"request.in_flight", otelMetric.WithDescription("Coordinator: in flight calls."))),
		started:    mustInstrument(meter.Int64Counter(meterPrefix+"request.started", otelMetric.WithDescription("Coordinator: started calls."))),
		suppressed: mustInstrument(meter.Int64Counter(meterPrefix+"request.suppressed", otelMetric.WithDescription("Coordinator: calls suppressed by the policy."))),
		canceled:   mustInstrument(meter.Int64Counter(meterPrefix+"request.canceled", otelMetric.WithDescription("Coordinator: canceled calls."))),
	}
}

func (t *telemetry) callStarted(ctx context.Context, call *Call) context.Context {
	t.inFlight.Add(ctx, 1, otelMetric.WithAttributes(t.attrs...))
	t.started.Add(ctx, 1, otelMetric.WithAttributes(t.attrs...))
	ctx, call.span = t.tracer.Start(
		ctx,
		requestSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(t.attrs...),
		otelTrace.WithAttributes(attrCallID.Int64(int64(call.id)), attrMethod.String(call.method), attrURL.String(call.url)),
	)
	return ctx
}

// callUntracked is called when the call stops being in flight, by completion or cancellation.
func (t *telemetry) callUntracked(ctx context.Context, canceled bool) {
	t.inFlight.Add(ctx, -1, otelMetric.WithAttributes(t.attrs...)) // same attributes as above (+1)!
	if canceled {
		t.canceled.Add(ctx, 1, otelMetric.WithAttributes(t.attrs...))
	}
}

func (t *telemetry) callSuppressed(ctx context.Context) {
	t.suppressed.Add(ctx, 1, otelMetric.WithAttributes(t.attrs...))
}

func (t *telemetry) callFinished(call *Call, result *Result, err error) {
	span := call.span
	if span == nil {
		return
	}
	span.SetAttributes(attrCanceled.Bool(result != nil && result.Canceled))
	if result != nil && result.Redirect != "" {
		span.SetAttributes(attrRedirect.String(result.Redirect))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func mustInstrument[T any](instrument T, err error) T {
	if err != nil {
		panic(err)
	}
	return instrument
}
