// Package order maps persisted bookings of any accepted shape onto the one
// record the tracking core reads.
package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrMalformedOrder = errors.New("order: payload is not a JSON object")

// Order is the canonical booking record.
type Order struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Date        string    `json:"date"`
	TrainName   string    `json:"trainName,omitempty"`
	TrainNumber string    `json:"trainNumber,omitempty"`
	BookedAt    time.Time `json:"timeBooked"`
}

var (
	idKeys          = []string{"id", "bookingId", "booking_id", "bookingCode", "code"}
	originKeys      = []string{"origin", "originStation", "from", "origin_station"}
	originCityKeys  = []string{"originCity", "origin_city"}
	destKeys        = []string{"destination", "destStation", "to", "destination_station"}
	destCityKeys    = []string{"destCity", "destinationCity", "dest_city"}
	dateKeys        = []string{"date", "departureDate", "travelDate", "departure_date"}
	trainNameKeys   = []string{"trainName", "train_name", "train"}
	trainNumberKeys = []string{"trainNumber", "train_number", "trainNo", "train_no"}
	bookedAtKeys    = []string{"timeBooked", "bookedAt", "createdAt", "created_at"}
)

// Normalize decodes one persisted booking. Missing fields stay empty; only a
// payload that is not an object is rejected. A booking without an id gets a
// "KAI-" id derived from its payload, so the same booking always maps to
// the same id.
func Normalize(raw []byte) (Order, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Order{}, ErrMalformedOrder
	}
	o := fromFields(fields)
	if o.ID == "" {
		o.ID = StableID(raw)
	}
	return o, nil
}

// NormalizeHistory decodes a kai_history export: a JSON array of bookings,
// newest first. Entries that are not objects are skipped.
func NormalizeHistory(raw []byte) ([]Order, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	out := make([]Order, 0, len(items))
	for _, it := range items {
		o, err := Normalize(it)
		if err != nil {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func fromFields(f map[string]any) Order {
	o := Order{
		ID:          firstString(f, idKeys),
		Origin:      firstString(f, originKeys),
		Destination: firstString(f, destKeys),
		Date:        firstString(f, dateKeys),
		TrainName:   firstString(f, trainNameKeys),
		TrainNumber: firstString(f, trainNumberKeys),
	}
	if o.Origin == "" {
		o.Origin = firstString(f, originCityKeys)
	}
	if o.Destination == "" {
		o.Destination = firstString(f, destCityKeys)
	}
	if s := firstString(f, bookedAtKeys); s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			o.BookedAt = t
		}
	}
	if o.TrainNumber == "" {
		if train, ok := f["train"].(map[string]any); ok {
			o.TrainNumber = firstString(train, []string{"number", "trainNumber", "no"})
		}
	}
	return o
}

// StableID returns a booking code in the KAI-XXXXXX form derived from the
// payload. The code is a name-based UUID, so equal payloads share it.
func StableID(payload []byte) string {
	u := strings.ReplaceAll(uuid.NewSHA1(bookingNamespace, payload).String(), "-", "")
	return "KAI-" + strings.ToUpper(u[:6])
}

var bookingNamespace = uuid.MustParse("6f1c2a0e-5b7d-4c3e-9a41-2d8e7f0b9c15")

func firstString(f map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := f[k]
		if !ok || v == nil {
			continue
		}
		if s := stringify(v); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return ""
	case map[string]any:
		// nested train objects: {"train": {"name": ..., "number": ...}}
		if s := firstString(x, []string{"name", "number", "id"}); s != "" {
			return s
		}
	}
	return ""
}
