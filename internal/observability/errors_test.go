package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"go-chi-calculator/internal/testutil"
)

func TestRecordError(t *testing.T) {
	tests := []struct {
		name   string
		op     string
		msg    string
		status int
	}{
		{name: "bad digit", op: "digit", msg: "invalid digit", status: http.StatusBadRequest},
		{name: "missing entry", op: "recall", msg: "history entry not found", status: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
			ctx := ContextWithRequestID(context.Background(), "req-1")
			ctx, span := tp.Tracer("test").Start(ctx, "calculator."+tc.op)

			core, logs := observer.New(zapcore.DebugLevel)
			counter, err := otel.Meter("test").Int64Counter("test.errors.total")
			if err != nil {
				t.Fatalf("creating counter: %v", err)
			}

			w := httptest.NewRecorder()
			RecordError(ctx, span, zap.New(core), counter, tc.op, tc.msg, errors.New("boom"), tc.status, w)
			span.End()

			testutil.CheckResponseCode(t, tc.status, w.Code)
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected Content-Type application/json, got %q", ct)
			}

			var body map[string]string
			testutil.DecodeJSONBody(t, w.Body, &body)
			if body["error"] != tc.msg {
				t.Fatalf("expected error %q, got %q", tc.msg, body["error"])
			}
			if _, ok := body["request_id"]; ok {
				t.Fatal("did not expect request_id field in JSON body")
			}

			ended := recorder.Ended()
			if len(ended) != 1 || ended[0].Status().Code != codes.Error {
				t.Fatalf("expected one errored span, got %+v", ended)
			}

			entries := logs.FilterMessage(tc.msg).All()
			if len(entries) != 1 {
				t.Fatalf("expected one log entry, got %d", len(entries))
			}
			fields := entries[0].ContextMap()
			if fields["operation"] != tc.op || fields["request_id"] != "req-1" {
				t.Fatalf("unexpected log fields %v", fields)
			}
		})
	}
}
