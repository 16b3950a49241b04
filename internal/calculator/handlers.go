package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"go-chi-calculator/internal/engine"
	"go-chi-calculator/internal/handlers"
	"go-chi-calculator/internal/history"
	"go-chi-calculator/internal/keys"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/preferences"
	"go-chi-calculator/internal/session"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

// Handler serves one calculator session over HTTP.
type Handler struct {
	sess *session.Session
	in   *instruments
}

// NewHandler builds the handler and its metric instruments.
func NewHandler(sess *session.Session) (*Handler, error) {
	in, err := newInstruments()
	if err != nil {
		return nil, err
	}
	return &Handler{sess: sess, in: in}, nil
}

// requestError carries the status and client message of a failed event.
type requestError struct {
	status int
	msg    string
	err    error
}

func badRequest(msg string, err error) *requestError {
	return &requestError{status: http.StatusBadRequest, msg: msg, err: err}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, history.ErrNotFound), errors.Is(err, preferences.ErrUnknownPreference):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// eventFunc runs one calculator event inside the handler's span.
type eventFunc func(ctx context.Context, span trace.Span) (session.Snapshot, *requestError)

// ---------------------------------------------------------------------------
// Handlers: engine events
// ---------------------------------------------------------------------------

// Display handles GET /calculator/display
func (h *Handler) Display(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, h.sess.Display())
}

// Digit handles POST /calculator/digit
func (h *Handler) Digit(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, "digit", func(ctx context.Context, span trace.Span) (session.Snapshot, *requestError) {
		var req DigitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return session.Snapshot{}, badRequest("invalid request body", err)
		}
		span.SetAttributes(attribute.String("calculator.digit", req.Digit))

		snap, err := h.sess.AppendDigit(ctx, req.Digit)
		if err != nil {
			return snap, badRequest(err.Error(), err)
		}
		return snap, nil
	})
}

// Operator handles POST /calculator/operator
func (h *Handler) Operator(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, "operator", func(ctx context.Context, span trace.Span) (session.Snapshot, *requestError) {
		var req OperatorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return session.Snapshot{}, badRequest("invalid request body", err)
		}
		op, err := engine.ParseOperator(req.Operator)
		if err != nil {
			return session.Snapshot{}, badRequest(err.Error(), err)
		}
		span.SetAttributes(attribute.String("calculator.operator", string(op)))

		snap, err := h.sess.ChooseOperator(ctx, op)
		if err != nil {
			return snap, badRequest(err.Error(), err)
		}
		return snap, nil
	})
}

// Compute handles POST /calculator/compute
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, "compute", func(ctx context.Context, _ trace.Span) (session.Snapshot, *requestError) {
		return h.sess.Compute(ctx), nil
	})
}

// Delete handles POST /calculator/delete
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, "delete", func(ctx context.Context, _ trace.Span) (session.Snapshot, *requestError) {
		return h.sess.Delete(ctx), nil
	})
}

// Clear handles POST /calculator/clear
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, "clear", func(ctx context.Context, _ trace.Span) (session.Snapshot, *requestError) {
		return h.sess.Clear(ctx), nil
	})
}

// Recall handles POST /calculator/recall. It reuses a past result as the
// current operand.
func (h *Handler) Recall(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, "recall", func(ctx context.Context, span trace.Span) (session.Snapshot, *requestError) {
		var req RecallRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return session.Snapshot{}, badRequest("invalid request body", err)
		}

		switch {
		case req.ID != nil:
			span.SetAttributes(attribute.Int64("history.entry_id", *req.ID))
			snap, err := h.sess.Recall(ctx, *req.ID)
			if err != nil {
				return snap, &requestError{status: statusFor(err), msg: err.Error(), err: err}
			}
			return snap, nil
		case req.Value != nil:
			return h.sess.LoadValue(ctx, *req.Value), nil
		}
		err := errors.New("id or value required")
		return session.Snapshot{}, badRequest(err.Error(), err)
	})
}

// Keys handles POST /calculator/keys. It replays keyboard keys in order,
// creating a child span per key. Every key is checked before the first one is
// pressed, so a rejected sequence leaves the session untouched.
func (h *Handler) Keys(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, "keys", func(ctx context.Context, span trace.Span) (session.Snapshot, *requestError) {
		var req KeysRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return session.Snapshot{}, badRequest("invalid request body", err)
		}
		if len(req.Keys) == 0 {
			err := errors.New("keys array is empty")
			return session.Snapshot{}, badRequest(err.Error(), err)
		}
		span.SetAttributes(attribute.Int("calculator.keys_count", len(req.Keys)))

		for i, key := range req.Keys {
			if _, ok := keys.Lookup(key); !ok {
				err := fmt.Errorf("%w: %q", session.ErrUnboundKey, key)
				return h.sess.Display(), badRequest(fmt.Sprintf("key %d: %v", i, err), err)
			}
		}

		snap := h.sess.Display()
		var entries []*history.Entry
		for i, key := range req.Keys {
			_, keySpan := tracer.Start(ctx, fmt.Sprintf("calculator.keys.%d", i),
				trace.WithAttributes(attribute.String("calculator.key", key)),
			)

			var err error
			snap, err = h.sess.Press(ctx, key)
			if err != nil {
				keySpan.RecordError(err)
				keySpan.SetStatus(codes.Error, err.Error())
				keySpan.End()
				return snap, badRequest(fmt.Sprintf("key %d: %v", i, err), err)
			}
			if snap.Entry != nil {
				entries = append(entries, snap.Entry)
			}
			keySpan.SetAttributes(attribute.String("calculator.display", snap.Current))
			keySpan.End()
		}

		if snap.Entry == nil && len(entries) > 0 {
			snap.Entry = entries[len(entries)-1]
		}
		return snap, nil
	})
}

// handleEvent is the shared implementation for every state-changing
// calculator endpoint: it opens the span, times the event, records metrics
// and writes the resulting snapshot.
func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request, opName string, run eventFunc) {
	ctx := r.Context()
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "calculator."+opName,
		trace.WithAttributes(
			attribute.String("calculator.operation", opName),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()
	logger := observability.LoggerWithTrace(ctx)

	start := time.Now()
	snap, reqErr := run(ctx, span)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	if reqErr != nil {
		observability.RecordError(ctx, span, logger, h.in.errors, opName, reqErr.msg, reqErr.err, reqErr.status, w)
		return
	}

	attrs := metric.WithAttributes(attribute.String("operation", opName))
	h.in.ops.Add(ctx, 1, attrs)
	h.in.duration.Record(ctx, elapsed, attrs)

	span.SetAttributes(attribute.String("calculator.display", snap.Current))

	switch {
	case snap.Error != "":
		h.in.errors.Add(ctx, 1, attrs)
		span.AddEvent("calculator.division_by_zero")
		logger.Warn("calculation failed",
			zap.String("operation", opName),
			zap.String("error", snap.Error),
			zap.String("request_id", requestID),
		)
	case snap.Entry != nil:
		h.in.calculations.Add(ctx, 1, attrs)
		if v, ok := engine.ParseOperand(snap.Entry.Result); ok {
			h.in.lastResult.Record(ctx, v, attrs)
		}
		span.AddEvent("computation.complete", trace.WithAttributes(
			attribute.Int64("history.entry_id", snap.Entry.ID),
			attribute.String("result", snap.Entry.Result),
			attribute.Float64("duration_ms", elapsed),
		))
		logger.Info("calculation completed",
			zap.String("operation", opName),
			zap.String("calculation", snap.Entry.Expression),
			zap.String("result", snap.Entry.Result),
			zap.Int64("entry_id", snap.Entry.ID),
			zap.String("request_id", requestID),
			zap.Float64("duration_ms", elapsed),
		)
	}
	if snap.PersistError != "" {
		logger.Error("persisting state failed",
			zap.String("operation", opName),
			zap.String("error", snap.PersistError),
			zap.String("request_id", requestID),
		)
	}

	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, snap)
}

// ---------------------------------------------------------------------------
// Handlers: history and preferences
// ---------------------------------------------------------------------------

// History handles GET /history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	groups := h.sess.History()
	if groups == nil {
		groups = []history.DayGroup{}
	}
	handlers.WriteJSON(w, http.StatusOK, HistoryResponse{Groups: groups, Total: h.sess.HistoryLen()})
}

// HistoryEntry handles GET /history/{id}
func (h *Handler) HistoryEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "calculator.history_entry")
	defer span.End()
	logger := observability.LoggerWithTrace(ctx)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		observability.RecordError(ctx, span, logger, h.in.errors, "history_entry", "invalid history id", err, http.StatusBadRequest, w)
		return
	}

	entry, err := h.sess.Entry(id)
	if err != nil {
		observability.RecordError(ctx, span, logger, h.in.errors, "history_entry", err.Error(), err, http.StatusNotFound, w)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, entry)
}

// Preferences handles GET /preferences
func (h *Handler) Preferences(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, PreferencesResponse{Preferences: h.sess.Preferences()})
}

// TogglePreference handles POST /preferences/{name}/toggle
func (h *Handler) TogglePreference(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "calculator.toggle_preference")
	defer span.End()
	logger := observability.LoggerWithTrace(ctx)

	name, err := preferences.ParseName(chi.URLParam(r, "name"))
	if err != nil {
		observability.RecordError(ctx, span, logger, h.in.errors, "toggle_preference", err.Error(), err, statusFor(err), w)
		return
	}
	span.SetAttributes(attribute.String("preference", string(name)))

	prefs, err := h.sess.TogglePreference(ctx, name)
	resp := PreferencesResponse{Preferences: prefs}
	if err != nil {
		resp.PersistError = err.Error()
		span.RecordError(err)
	}

	logger.Info("preference toggled",
		zap.String("preference", string(name)),
		zap.Bool("value", prefs.Get(name)),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)
	handlers.WriteJSON(w, http.StatusOK, resp)
}
