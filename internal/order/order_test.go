package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiwoom/internal/control/sim"
	"kiwoom/internal/openapi"
)

func TestDecodeLimitBuy(t *testing.T) {
	o, err := Decode([]byte(`{"account":"5550001234","code":"6eh25","side":"buy","qty":2,"price":"1.08450"}`))
	require.NoError(t, err)
	assert.Equal(t, New, o.Action)
	assert.Equal(t, Limit, o.PriceType)
	assert.Equal(t, "6EH25", o.Code)
	assert.Equal(t, DefaultScreen, o.ScreenNo)
	assert.Equal(t, "new_buy", o.RQName)

	a := o.Args()
	assert.Equal(t, 2, a.OrderType)
	assert.Equal(t, "2", a.HogaGb)
	assert.Equal(t, "1.0845", a.Price)
	assert.Equal(t, "", a.StopPrice)
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"missing account":  `{"code":"6EH25","side":"buy","qty":1,"price":"1"}`,
		"bad side":         `{"account":"5550001234","code":"6EH25","side":"long","qty":1,"price":"1"}`,
		"zero qty":         `{"account":"5550001234","code":"6EH25","side":"buy","qty":0,"price":"1"}`,
		"limit no price":   `{"account":"5550001234","code":"6EH25","side":"buy","qty":1}`,
		"stop no trigger":  `{"account":"5550001234","code":"6EH25","side":"sell","qty":1,"price_type":"stop"}`,
		"cancel no orig":   `{"account":"5550001234","code":"6EH25","side":"sell","qty":1,"action":"cancel","price_type":"market"}`,
		"unknown field":    `{"account":"5550001234","code":"6EH25","side":"buy","qty":1,"price":"1","leverage":10}`,
		"negative price":   `{"account":"5550001234","code":"6EH25","side":"buy","qty":1,"price":"-1"}`,
		"zero limit price": `{"account":"5550001234","code":"6EH25","side":"buy","qty":1,"price":"0"}`,
		"not json":         `{`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestDecodeReportsSchemaViolations(t *testing.T) {
	_, err := Decode([]byte(`{"code":"6EH25","side":"buy","qty":1,"price":"1"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jsonschema")

	_, err = Decode([]byte(`{"account":"5550001234","code":"6EH25","side":"buy","qty":1.5,"price":"1"}`))
	assert.Error(t, err)

	o, err := Decode([]byte(`{"account":"5550001234","code":"6EH25","side":"sell","qty":3,"price":1.25}`))
	require.NoError(t, err)
	assert.Equal(t, 3, o.Qty)
	assert.Equal(t, "1.25", o.Args().Price)
}

func TestOrderTypes(t *testing.T) {
	cases := []struct {
		action Action
		side   Side
		want   int
	}{
		{New, Sell, 1}, {New, Buy, 2},
		{Cancel, Sell, 3}, {Cancel, Buy, 4},
		{Modify, Sell, 5}, {Modify, Buy, 6},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Order{Action: c.action, Side: c.side}.OrderType(), "%s %s", c.action, c.side)
	}
}

func TestStopLimitArgs(t *testing.T) {
	o := Order{
		Account: "5550001234", Code: "CLM25", Side: Sell, Action: Modify, PriceType: StopLimit,
		Qty: 1, Price: decimal.RequireFromString("71.20"), StopPrice: decimal.RequireFromString("71.5"),
		OrigOrderNo: "0000123",
	}
	o.normalize()
	a := o.Args()
	assert.Equal(t, 5, a.OrderType)
	assert.Equal(t, "4", a.HogaGb)
	assert.Equal(t, "71.2", a.Price)
	assert.Equal(t, "71.5", a.StopPrice)
	assert.Equal(t, "0000123", a.OrgOrderNo)
}

func TestSubmitForwardsTenArgs(t *testing.T) {
	ctrl := sim.New()
	api, err := openapi.New(ctrl, openapi.WithRegistry(openapi.NewRegistry()))
	require.NoError(t, err)

	o := Order{Account: "5550001234", Code: "6EH25", Side: Sell, PriceType: Market, Qty: 3}
	require.NoError(t, Submit(api, o))

	calls := ctrl.CallsTo(openapi.MethodSendOrder)
	require.Len(t, calls, 1)
	assert.Equal(t, "SendOrder(str, str, str, int, str, int, str, str, str, str)", calls[0].Signature)
	assert.Equal(t, []any{"new_sell", DefaultScreen, "5550001234", 1, "6EH25", 3, "", "", "1", ""}, calls[0].Args)

	ctrl.SetResult(openapi.MethodSendOrder, openapi.CodeOrderOverload)
	err = Submit(api, o)
	assert.True(t, openapi.IsCode(err, openapi.CodeOrderOverload))

	assert.Error(t, Submit(api, Order{Account: "5550001234", Code: "6EH25", Side: Sell, Qty: 1}), "limit without price")
}
