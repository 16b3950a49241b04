package calculator

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"go-chi-calculator/internal/history"
	"go-chi-calculator/internal/preferences"
	"go-chi-calculator/internal/session"
	"go-chi-calculator/internal/storage"
	"go-chi-calculator/internal/testutil"
)

func newTestRouter(t *testing.T, store storage.Store) (http.Handler, *session.Session) {
	t.Helper()
	now := func() time.Time { return time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC) }
	sess := session.New(
		history.NewLog(store, history.WithClock(now)),
		preferences.NewManager(store, nil),
		session.WithClock(now),
		session.WithLocation(time.UTC),
	)
	sess.Start(context.Background())

	h, err := NewHandler(sess)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, sess
}

func TestDigitOperatorCompute(t *testing.T) {
	h, _ := newTestRouter(t, storage.NewMemory(0))

	testutil.CheckResponseCode(t, http.StatusOK, testutil.PostJSON(h, "/calculator/digit", `{"digit":"5"}`).Code)
	testutil.CheckResponseCode(t, http.StatusOK, testutil.PostJSON(h, "/calculator/operator", `{"operator":"+"}`).Code)
	testutil.CheckResponseCode(t, http.StatusOK, testutil.PostJSON(h, "/calculator/digit", `{"digit":"3"}`).Code)

	w := testutil.PostJSON(h, "/calculator/compute", "")
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var snap session.Snapshot
	testutil.DecodeJSONBody(t, w.Body, &snap)
	if snap.Current != "8" {
		t.Fatalf("expected current %q, got %q", "8", snap.Current)
	}
	if snap.Entry == nil || snap.Entry.Expression != "5 + 8" {
		t.Fatalf("expected entry %q, got %+v", "5 + 8", snap.Entry)
	}
}

func TestComputeDivideByZeroReportsError(t *testing.T) {
	h, sess := newTestRouter(t, storage.NewMemory(0))

	w := testutil.PostJSON(h, "/calculator/keys", `{"keys":["7","/","0","Enter"]}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var body map[string]any
	testutil.DecodeJSONBody(t, w.Body, &body)
	if body["current"] != "Error" {
		t.Fatalf("expected current %q, got %#v", "Error", body["current"])
	}
	if body["error"] != session.ErrDivideByZero.Error() {
		t.Fatalf("expected error %q, got %#v", session.ErrDivideByZero, body["error"])
	}
	if _, ok := body["entry"]; ok {
		t.Fatal("did not expect a history entry")
	}
	if sess.HistoryLen() != 0 {
		t.Fatalf("expected empty history, got %d", sess.HistoryLen())
	}
}

func TestBadRequests(t *testing.T) {
	h, _ := newTestRouter(t, storage.NewMemory(0))

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{name: "malformed body", path: "/calculator/digit", body: `{`, want: http.StatusBadRequest},
		{name: "bad digit", path: "/calculator/digit", body: `{"digit":"x"}`, want: http.StatusBadRequest},
		{name: "bad operator", path: "/calculator/operator", body: `{"operator":"^"}`, want: http.StatusBadRequest},
		{name: "empty keys", path: "/calculator/keys", body: `{"keys":[]}`, want: http.StatusBadRequest},
		{name: "unbound key", path: "/calculator/keys", body: `{"keys":["1","q"]}`, want: http.StatusBadRequest},
		{name: "recall nothing", path: "/calculator/recall", body: `{}`, want: http.StatusBadRequest},
		{name: "recall missing", path: "/calculator/recall", body: `{"id":1}`, want: http.StatusNotFound},
		{name: "unknown preference", path: "/preferences/volume/toggle", body: ``, want: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := testutil.PostJSON(h, tc.path, tc.body)
			testutil.CheckResponseCode(t, tc.want, w.Code)

			var body map[string]string
			testutil.DecodeJSONBody(t, w.Body, &body)
			if body["error"] == "" {
				t.Fatal("expected error message in body")
			}
		})
	}
}

func TestKeysRejectedSequenceLeavesSessionUntouched(t *testing.T) {
	h, sess := newTestRouter(t, storage.NewMemory(0))
	testutil.PostJSON(h, "/calculator/keys", `{"keys":["9"]}`)

	w := testutil.PostJSON(h, "/calculator/keys", `{"keys":["+","1","=","q"]}`)
	testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)

	if got := sess.State().Current; got != "9" {
		t.Fatalf("expected current %q to survive the rejected sequence, got %q", "9", got)
	}
	if sess.HistoryLen() != 0 {
		t.Fatalf("expected no history entries, got %d", sess.HistoryLen())
	}
}

func TestHistoryAndRecall(t *testing.T) {
	h, _ := newTestRouter(t, storage.NewMemory(0))

	w := testutil.PostJSON(h, "/calculator/keys", `{"keys":["6","*","7","="]}`)
	var snap session.Snapshot
	testutil.DecodeJSONBody(t, w.Body, &snap)
	if snap.Entry == nil {
		t.Fatal("expected an entry")
	}
	id := snap.Entry.ID

	w = testutil.Get(h, "/history")
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	var hist HistoryResponse
	testutil.DecodeJSONBody(t, w.Body, &hist)
	if hist.Total != 1 || len(hist.Groups) != 1 || hist.Groups[0].Label != "Today" {
		t.Fatalf("unexpected history %+v", hist)
	}

	w = testutil.Get(h, "/history/"+strconv.FormatInt(id, 10))
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	var raw map[string]any
	testutil.DecodeJSONBody(t, w.Body, &raw)
	if raw["calculation"] != "6 × 42" || raw["result"] != "42" {
		t.Fatalf("unexpected entry body %#v", raw)
	}

	testutil.PostJSON(h, "/calculator/clear", "")
	w = testutil.PostJSON(h, "/calculator/recall", `{"id":`+strconv.FormatInt(id, 10)+`}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	testutil.DecodeJSONBody(t, w.Body, &snap)
	if snap.Current != "42" {
		t.Fatalf("expected recalled %q, got %q", "42", snap.Current)
	}

	w = testutil.Get(h, "/history/abc")
	testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)
}

func TestTogglePreference(t *testing.T) {
	store := storage.NewMemory(0)
	h, _ := newTestRouter(t, store)

	w := testutil.PostJSON(h, "/preferences/dark-mode/toggle", "")
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var prefs PreferencesResponse
	testutil.DecodeJSONBody(t, w.Body, &prefs)
	if !prefs.DarkMode || !prefs.SoundEnabled || !prefs.AnimationsEnabled {
		t.Fatalf("unexpected preferences %+v", prefs)
	}

	raw, ok, _ := store.Get(context.Background(), "darkMode")
	if !ok || raw != "true" {
		t.Fatalf("expected stored %q, got %q", "true", raw)
	}

	w = testutil.Get(h, "/preferences")
	testutil.DecodeJSONBody(t, w.Body, &prefs)
	if !prefs.DarkMode {
		t.Fatal("expected GET /preferences to reflect the toggle")
	}
}

func TestDisplay(t *testing.T) {
	h, _ := newTestRouter(t, storage.NewMemory(0))
	testutil.PostJSON(h, "/calculator/keys", `{"keys":["1","2","+"]}`)

	w := testutil.Get(h, "/calculator/display")

	var body map[string]any
	testutil.DecodeJSONBody(t, w.Body, &body)
	if body["current"] != "" || body["previous"] != "12 +" {
		t.Fatalf("unexpected display %#v", body)
	}
}
