package instrument

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// EndSpan records err on span (when non-nil) and ends it.
//
//	ctx, span := tracer.Start(ctx, "db.ReplaceCode")
//	defer func() { instrument.EndSpan(span, err) }()
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
