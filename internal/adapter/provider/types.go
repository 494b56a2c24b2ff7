package provider

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"boostgate/internal/core/domain"
)

// Panel APIs are loose with JSON types: numeric fields arrive as numbers or
// quoted strings, booleans as true, "true", 1 or "1". These wrappers accept
// all of those forms.

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Some panels send counts as "1000.0".
		fl, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return err
		}
		n = int(fl)
	}
	*f = flexInt(n)
	return nil
}

type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s := strings.ToLower(strings.Trim(string(bytes.TrimSpace(b)), `"`))
	switch s {
	case "true", "1", "yes":
		*f = true
	default:
		*f = false
	}
	return nil
}

type rawService struct {
	Service  flexInt         `json:"service"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Category string          `json:"category"`
	Rate     decimal.Decimal `json:"rate"`
	Min      flexInt         `json:"min"`
	Max      flexInt         `json:"max"`
	Refill   flexBool        `json:"refill"`
	Cancel   flexBool        `json:"cancel"`
	Dripfeed flexBool        `json:"dripfeed"`
}

type addResponse struct {
	Order  flexInt         `json:"order"`
	Charge decimal.Decimal `json:"charge"`
	Error  string          `json:"error"`
}

type statusResponse struct {
	Charge     decimal.Decimal `json:"charge"`
	StartCount flexInt         `json:"start_count"`
	Status     string          `json:"status"`
	Remains    flexInt         `json:"remains"`
	Currency   string          `json:"currency"`
	Error      string          `json:"error"`
}

type refillResponse struct {
	Refill flexInt `json:"refill"`
	Error  string  `json:"error"`
}

type cancelResponse struct {
	Cancel flexInt `json:"cancel"`
	Error  string  `json:"error"`
}

type balanceResponse struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
	Error    string          `json:"error"`
}

// errorProbe is unmarshalled first on every response to detect the
// panel-level error envelope, which arrives with HTTP 200.
type errorProbe struct {
	Error string `json:"error"`
}

func extractError(body []byte) string {
	var p errorProbe
	if err := json.Unmarshal(body, &p); err != nil {
		return ""
	}
	return p.Error
}

// normalizeStatus maps the panel's free-form status strings onto the order
// lifecycle. Unknown statuses stay in processing so the sync keeps polling.
func normalizeStatus(s string) domain.OrderStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return domain.OrderStatusPending
	case "in progress", "processing", "inprogress":
		return domain.OrderStatusProcessing
	case "completed":
		return domain.OrderStatusCompleted
	case "partial":
		return domain.OrderStatusPartial
	case "canceled", "cancelled":
		return domain.OrderStatusCancelled
	case "refunded":
		return domain.OrderStatusRefunded
	default:
		return domain.OrderStatusProcessing
	}
}
