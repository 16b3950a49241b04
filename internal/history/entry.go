package history

import (
	"encoding/json"
	"fmt"
	"time"
)

// isoLayout matches the millisecond UTC form browsers write for dates.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Entry is one completed calculation. Entries are never modified after they
// are recorded.
type Entry struct {
	ID         int64
	Timestamp  time.Time
	Expression string
	Result     string
}

type entryJSON struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Calculation string `json:"calculation"`
	Result      string `json:"result"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		ID:          e.ID,
		Date:        e.Timestamp.UTC().Format(isoLayout),
		Calculation: e.Expression,
		Result:      e.Result,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, raw.Date)
	if err != nil {
		return fmt.Errorf("entry %d: %w", raw.ID, err)
	}
	*e = Entry{
		ID:         raw.ID,
		Timestamp:  ts,
		Expression: raw.Calculation,
		Result:     raw.Result,
	}
	return nil
}
