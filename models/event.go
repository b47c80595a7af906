// api/models/event.go
package models

import (
	"encoding/json"
	"time"
)

// Event type vocabulary emitted by the checkout instrumentation. The recorder
// accepts any non-empty type string; only these participate in aggregation.
const (
	EventSessionStart         = "session_start"
	EventPageLoad             = "page_load"
	EventPageView             = "page_view"
	EventAddToCart            = "add_to_cart"
	EventRemoveFromCart       = "remove_from_cart"
	EventCheckoutStart        = "checkout_start"
	EventCheckoutSubmit       = "checkout_submit"
	EventFieldChange          = "field_change"
	EventFieldFocus           = "field_focus"
	EventFieldBlur            = "field_blur"
	EventValidationError      = "validation_error"
	EventPaymentMethodChange  = "payment_method_change"
	EventShippingMethodChange = "shipping_method_change"
	EventFormAbandonment      = "form_abandonment"
	EventOrderCreated         = "order_created"
	EventOrderCompleted       = "order_completed"
	EventTimeSpent            = "time_spent"
)

// EventScroll is acknowledged by the recorder but never persisted. Scroll
// beacons fire far too often to be worth a row each.
const EventScroll = "scroll"

// FrictionEvent is one recorded occurrence of a tracked checkout action.
// Data holds the serialized payload; its shape depends on Type and is parsed
// lazily by the aggregation queries that need specific fields.
type FrictionEvent struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Type      string    `json:"type"`
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
}

// CartEventPayload is the data shape of add_to_cart / remove_from_cart.
type CartEventPayload struct {
	ProductID   *int64 `json:"product_id"`
	VariationID int64  `json:"variation_id,omitempty"`
	Quantity    int    `json:"quantity,omitempty"`
	CartItemKey string `json:"cart_item_key,omitempty"`
}

// OrderEventPayload is the data shape of checkout_start, order_created and
// order_completed.
type OrderEventPayload struct {
	OrderID    int64   `json:"order_id,omitempty"`
	OrderTotal float64 `json:"order_total,omitempty"`
	Items      int     `json:"items,omitempty"`
}

// ValidationErrorPayload is the data shape of validation_error.
type ValidationErrorPayload struct {
	Errors []string `json:"errors"`
}

// AbandonedField identifies one required field left empty at abandonment.
type AbandonedField struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// FormAbandonmentPayload is the data shape of form_abandonment beacons.
type FormAbandonmentPayload struct {
	TimeSpent       float64          `json:"time_spent"`
	FieldsFilled    int              `json:"fields_filled"`
	AbandonedFields []AbandonedField `json:"abandoned_fields,omitempty"`
	LastErrors      []string         `json:"last_errors,omitempty"`
}

// TrackRequest is the ingestion envelope. Data tolerates producer-side
/// inconsistency: it may arrive as a native JSON structure or as a
// JSON-encoded string.
type TrackRequest struct {
	Type      string          `json:"type" binding:"required"`
	SessionID string          `json:"session_id" binding:"required"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// TrackResponse is the success/failure envelope returned by the ingestion
// endpoint.
type TrackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
}

// SessionStartResponse carries the server-issued session identity. The signed
// token is the canonical session authority; every later track call must echo
// both.
type SessionStartResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}
