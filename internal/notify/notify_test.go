package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMailer struct {
	got *resend.SendEmailRequest
	err error
}

func (f *fakeMailer) SendWithContext(_ context.Context, p *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.got = p
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

func sampleEvent() OrderPlaced {
	return OrderPlaced{
		OrderID:         41,
		CustomerName:    "Anna",
		CustomerEmail:   "anna@example.com",
		DeliveryAddress: "Anna, Via Roma 1, Milano 20100, MI",
		Lines:           []Line{{Name: "Mug", Quantity: 2, Subtotal: decimal.RequireFromString("25")}},
		TotalOriginal:   decimal.RequireFromString("25"),
		DiscountApplied: decimal.RequireFromString("5"),
		TotalFinal:      decimal.RequireFromString("20"),
		CouponCode:      "SAVE5",
	}
}

func TestResendNotifier_OrderPlaced(t *testing.T) {
	m := &fakeMailer{}
	n := &ResendNotifier{emails: m, from: "shop@example.com", log: zap.NewNop()}

	require.NoError(t, n.OrderPlaced(context.Background(), sampleEvent()))
	require.NotNil(t, m.got)
	assert.Equal(t, []string{"anna@example.com"}, m.got.To)
	assert.Equal(t, "Order #41 confirmed", m.got.Subject)
	assert.Contains(t, m.got.Html, "Mug")
	assert.Contains(t, m.got.Html, "Coupon SAVE5: -5.00")
	assert.Contains(t, m.got.Html, "Total: 20.00")
}

func TestResendNotifier_Errors(t *testing.T) {
	m := &fakeMailer{err: errors.New("quota exceeded")}
	n := &ResendNotifier{emails: m, from: "shop@example.com", log: zap.NewNop()}
	assert.Error(t, n.OrderPlaced(context.Background(), sampleEvent()))

	evt := sampleEvent()
	evt.CustomerEmail = ""
	m.got = nil
	assert.NoError(t, n.OrderPlaced(context.Background(), evt))
	assert.Nil(t, m.got)
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, NewLogNotifier(zap.NewNop()).OrderPlaced(context.Background(), sampleEvent()))
}
