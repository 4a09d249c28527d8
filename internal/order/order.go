// Package order builds validated SendOrder calls.
package order

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"

	"kiwoom/internal/openapi"
)

// DefaultScreen is used when an order carries no screen number.
const DefaultScreen = "9000"

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

type Action string

const (
	New    Action = "new"
	Cancel Action = "cancel"
	Modify Action = "modify"
)

// PriceType maps onto SendOrder's hoga code.
type PriceType string

const (
	Market    PriceType = "market"
	Limit     PriceType = "limit"
	Stop      PriceType = "stop"
	StopLimit PriceType = "stop_limit"
)

var hogaCodes = map[PriceType]string{
	Market:    "1",
	Limit:     "2",
	Stop:      "3",
	StopLimit: "4",
}

// Order is a request for SendOrder.
type Order struct {
	RQName      string          `json:"rq_name,omitempty"`
	ScreenNo    string          `json:"screen_no,omitempty"`
	Account     string          `json:"account"`
	Code        string          `json:"code"`
	Side        Side            `json:"side"`
	Action      Action          `json:"action,omitempty"`
	PriceType   PriceType       `json:"price_type,omitempty"`
	Qty         int             `json:"qty"`
	Price       decimal.Decimal `json:"price"`
	StopPrice   decimal.Decimal `json:"stop_price"`
	OrigOrderNo string          `json:"orig_order_no,omitempty"`
}

// Args are SendOrder's ten positional arguments.
type Args struct {
	RQName     string
	ScreenNo   string
	AccountNo  string
	OrderType  int
	Code       string
	Qty        int
	Price      string
	StopPrice  string
	HogaGb     string
	OrgOrderNo string
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("order.json", strings.NewReader(orderSchema)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile("order.json")
	})
	return schema, schemaErr
}

// Decode validates raw JSON against the order schema and decodes it.
func Decode(raw []byte) (Order, error) {
	sch, err := compiledSchema()
	if err != nil {
		return Order{}, fmt.Errorf("order: schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Order{}, fmt.Errorf("order: invalid json: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return Order{}, fmt.Errorf("order: %w", err)
	}
	var o Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return Order{}, fmt.Errorf("order: %w", err)
	}
	o.normalize()
	return o, o.Validate()
}

func (o *Order) normalize() {
	if o.Action == "" {
		o.Action = New
	}
	if o.PriceType == "" {
		o.PriceType = Limit
	}
	if o.ScreenNo == "" {
		o.ScreenNo = DefaultScreen
	}
	if o.RQName == "" {
		o.RQName = fmt.Sprintf("%s_%s", o.Action, o.Side)
	}
	o.Code = strings.ToUpper(strings.TrimSpace(o.Code))
}

// Validate checks the rules the schema cannot express.
func (o Order) Validate() error {
	if o.Qty <= 0 {
		return fmt.Errorf("order: qty must be positive")
	}
	if _, ok := hogaCodes[o.PriceType]; !ok {
		return fmt.Errorf("order: unknown price type %q", o.PriceType)
	}
	if o.Side != Buy && o.Side != Sell {
		return fmt.Errorf("order: unknown side %q", o.Side)
	}
	switch o.Action {
	case New:
	case Cancel, Modify:
		if strings.TrimSpace(o.OrigOrderNo) == "" {
			return fmt.Errorf("order: %s requires orig_order_no", o.Action)
		}
	default:
		return fmt.Errorf("order: unknown action %q", o.Action)
	}
	if (o.PriceType == Limit || o.PriceType == StopLimit) && !o.Price.IsPositive() {
		return fmt.Errorf("order: %s order requires a positive price", o.PriceType)
	}
	if (o.PriceType == Stop || o.PriceType == StopLimit) && !o.StopPrice.IsPositive() {
		return fmt.Errorf("order: %s order requires a positive stop_price", o.PriceType)
	}
	return nil
}

// OrderType returns the vendor order type code: 1/2 new sell/buy,
// 3/4 cancel sell/buy, 5/6 modify sell/buy.
func (o Order) OrderType() int {
	base := map[Action]int{New: 1, Cancel: 3, Modify: 5}[o.Action]
	if o.Side == Buy {
		return base + 1
	}
	return base
}

// Args maps o onto SendOrder's positional arguments. Prices not used by the
// price type are sent empty.
func (o Order) Args() Args {
	args := Args{
		RQName:     o.RQName,
		ScreenNo:   o.ScreenNo,
		AccountNo:  o.Account,
		OrderType:  o.OrderType(),
		Code:       o.Code,
		Qty:        o.Qty,
		HogaGb:     hogaCodes[o.PriceType],
		OrgOrderNo: o.OrigOrderNo,
	}
	if o.PriceType == Limit || o.PriceType == StopLimit {
		args.Price = o.Price.String()
	}
	if o.PriceType == Stop || o.PriceType == StopLimit {
		args.StopPrice = o.StopPrice.String()
	}
	return args
}

// Submit validates o and sends it. A non-zero return code becomes a
// *openapi.CodeError.
func Submit(api *openapi.API, o Order) error {
	o.normalize()
	if err := o.Validate(); err != nil {
		return err
	}
	a := o.Args()
	code, err := api.SendOrder(a.RQName, a.ScreenNo, a.AccountNo, a.OrderType, a.Code, a.Qty, a.Price, a.StopPrice, a.HogaGb, a.OrgOrderNo)
	if err != nil {
		return err
	}
	return openapi.CheckCode(openapi.MethodSendOrder, code)
}
