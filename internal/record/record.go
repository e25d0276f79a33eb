package record

import (
	"fmt"
	"math"
	"strings"
	"time"

	"kafkaload/internal/clock"
)

// Category is the kind of domain event a record represents.
type Category string

const (
	OrderCreated    Category = "ORDER_CREATED"
	PaymentReceived Category = "PAYMENT_RECEIVED"
	InventoryUpdate Category = "INVENTORY_UPDATE"
	OrderCancelled  Category = "ORDER_CANCELLED"
	ShipmentCreated Category = "SHIPMENT_CREATED"
)

// Categories is the fixed set a random category is drawn from.
var Categories = []Category{
	OrderCreated,
	PaymentReceived,
	InventoryUpdate,
	OrderCancelled,
	ShipmentCreated,
}

// Origin tags every record as synthetic load.
const Origin = "load-test-script"

// Record is one synthetic event. CorrelationID depends only on ID.
type Record struct {
	ID            string    `json:"message_id" msgpack:"message_id"`
	Category      Category  `json:"event_type" msgpack:"event_type"`
	Payload       string    `json:"payload" msgpack:"payload"`
	EmittedAt     time.Time `json:"timestamp" msgpack:"timestamp"`
	Origin        string    `json:"source" msgpack:"source"`
	CorrelationID string    `json:"correlation_id" msgpack:"correlation_id"`
}

// CorrelationID derives the correlation id for a record id.
func CorrelationID(id string) string {
	return "corr-" + id
}

// ParseCategory accepts any non-empty name; unknown names get the generic payload.
func ParseCategory(s string) (Category, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("empty category")
	}
	return Category(s), nil
}

// Rand is the randomness the generator and the pacing loop draw from.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Generator builds records. It holds no state besides its sources.
type Generator struct {
	rng   Rand
	clock clock.Clock
}

func NewGenerator(rng Rand, clk clock.Clock) *Generator {
	if clk == nil {
		clk = clock.Real()
	}
	return &Generator{rng: rng, clock: clk}
}

type orderCreated struct {
	OrderID    string  `json:"orderId"`
	CustomerID string  `json:"customerId"`
	Amount     float64 `json:"amount"`
	Items      int     `json:"items"`
}

type paymentReceived struct {
	PaymentID string  `json:"paymentId"`
	OrderID   string  `json:"orderId"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
}

type inventoryUpdate struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Warehouse string `json:"warehouse"`
}

type generic struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

var (
	paymentMethods = []string{"CREDIT_CARD", "PIX", "BOLETO"}
	warehouses     = []string{"WH1", "WH2", "WH3"}
)

// Generate builds a record for id. An empty category picks one at random.
func (g *Generator) Generate(id string, category Category) Record {
	if category == "" {
		category = Categories[g.rng.IntN(len(Categories))]
	}

	var payload any
	switch category {
	case OrderCreated:
		payload = orderCreated{
			OrderID:    "ORD-" + id,
			CustomerID: fmt.Sprintf("CUST-%d", g.between(1000, 9999)),
			Amount:     g.amount(),
			Items:      g.between(1, 10),
		}
	case PaymentReceived:
		payload = paymentReceived{
			PaymentID: "PAY-" + id,
			OrderID:   fmt.Sprintf("ORD-%d", g.between(1000, 9999)),
			Amount:    g.amount(),
			Method:    paymentMethods[g.rng.IntN(len(paymentMethods))],
		}
	case InventoryUpdate:
		payload = inventoryUpdate{
			ProductID: fmt.Sprintf("PROD-%d", g.between(100, 999)),
			Quantity:  g.between(-50, 100),
			Warehouse: warehouses[g.rng.IntN(len(warehouses))],
		}
	default:
		payload = generic{
			ID:   id,
			Data: fmt.Sprintf("Sample data for %s", category),
		}
	}

	// Payloads are flat structs of strings and numbers; Marshal cannot fail.
	body, _ := json.Marshal(payload)

	return Record{
		ID:            id,
		Category:      category,
		Payload:       string(body),
		EmittedAt:     g.clock.Now(),
		Origin:        Origin,
		CorrelationID: CorrelationID(id),
	}
}

// between returns an int in [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

// amount is a price in [10, 1000) rounded to cents.
func (g *Generator) amount() float64 {
	v := 10.0 + g.rng.Float64()*990.0
	return math.Round(v*100) / 100
}
