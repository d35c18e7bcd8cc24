package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"stock_trader/internal/engine"
	"stock_trader/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount() models.UserAccount {
	return models.UserAccount{
		UserID:      "u1",
		APIKey:      "key",
		AccessToken: "token",
	}
}

func TestPlaceOrderRegular(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders/regular", r.URL.Path)
		assert.Equal(t, "token key:token", r.Header.Get("Authorization"))
		assert.Equal(t, "3", r.Header.Get("X-Kite-Version"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "NSE", r.PostForm.Get("exchange"))
		assert.Equal(t, "SBIN", r.PostForm.Get("tradingsymbol"))
		assert.Equal(t, "SELL", r.PostForm.Get("transaction_type"))
		assert.Equal(t, "49", r.PostForm.Get("quantity"))
		assert.Equal(t, "MARKET", r.PostForm.Get("order_type"))
		assert.Equal(t, "MIS", r.PostForm.Get("product"))
		assert.Empty(t, r.PostForm.Get("trigger_price"))

		_, _ = w.Write([]byte(`{"status":"success","data":{"order_id":"151220000000000"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testAccount())
	orderID, err := c.PlaceOrder(context.Background(), engine.OrderParams{
		Variety:  models.VarietyRegular,
		Symbol:   "SBIN",
		Buy:      false,
		Quantity: 49,
	})
	require.NoError(t, err)
	assert.Equal(t, "151220000000000", orderID)
}

func TestPlaceOrderBracketCarriesTrigger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/co", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "201.5", r.PostForm.Get("trigger_price"))
		_, _ = w.Write([]byte(`{"status":"success","data":{"order_id":"1"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testAccount())
	_, err := c.PlaceOrder(context.Background(), engine.OrderParams{
		Variety:      models.VarietyBracket,
		Symbol:       "SBIN",
		Quantity:     49,
		TriggerPrice: 201.5,
	})
	require.NoError(t, err)
}

func TestPlaceOrderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"error","message":"Insufficient funds","error_type":"OrderException"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testAccount())
	_, err := c.PlaceOrder(context.Background(), engine.OrderParams{
		Variety: models.VarietyRegular, Symbol: "SBIN", Quantity: 1,
	})
	require.Error(t, err)

	var rejected *OrderRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "OrderException", rejected.ErrorType)
}

func TestCancelOrderWithParent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/orders/co/leg-2", r.URL.Path)
		assert.Equal(t, "entry-1", r.URL.Query().Get("parent_order_id"))
		_, _ = w.Write([]byte(`{"status":"success","data":{"order_id":"leg-2"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testAccount())
	orderID, err := c.CancelOrder(context.Background(), models.VarietyBracket, "leg-2", "entry-1")
	require.NoError(t, err)
	assert.Equal(t, "leg-2", orderID)
}

func TestMarginAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/margins/equity", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","data":{"available":{"live_balance":98765.43}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testAccount())
	funds, err := c.MarginAvailable(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 98765.43, funds, 1e-9)
}

func TestOpenOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","data":[
			{"order_id":"entry-1","parent_order_id":"","status":"COMPLETE"},
			{"order_id":"leg-2","parent_order_id":"entry-1","status":"TRIGGER PENDING"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testAccount())
	orders, err := c.OpenOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "entry-1", orders[1].ParentOrderID)
}

func TestPaperBrokerSynthesizesFill(t *testing.T) {
	postbacks := make(chan models.Postback, 1)
	p := NewPaper("u1", 100000, postbacks)

	orderID, err := p.PlaceOrder(context.Background(), engine.OrderParams{
		Variety:  models.VarietyRegular,
		Token:    1,
		Symbol:   "SBIN",
		Quantity: 49,
		Price:    200,
	})
	require.NoError(t, err)

	pb := <-postbacks
	assert.Equal(t, orderID, pb.OrderID)
	assert.Equal(t, "u1", pb.UserID)
	assert.Equal(t, models.StatusComplete, pb.Status)
	assert.Equal(t, 49, pb.FilledQuantity)
	assert.InDelta(t, 200.0, pb.AveragePrice, 1e-9)

	funds, err := p.MarginAvailable(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 100000.0, funds, 1e-9)
}
