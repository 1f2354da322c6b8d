package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

type mailer interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type ResendNotifier struct {
	emails mailer
	from   string
	log    *zap.Logger
}

func NewResendNotifier(apiKey, from string, log *zap.Logger) *ResendNotifier {
	return &ResendNotifier{emails: resend.NewClient(apiKey).Emails, from: from, log: log}
}

var orderTmpl = template.Must(template.New("order").Parse(`<p>Hi {{.CustomerName}},</p>
<p>thanks for your order #{{.OrderID}}. It will be shipped to {{.DeliveryAddress}}.</p>
<table>
{{range .Lines}}<tr><td>{{.Name}}</td><td>x{{.Quantity}}</td><td>{{.Subtotal.StringFixed 2}}</td></tr>
{{end}}</table>
{{if .CouponCode}}<p>Coupon {{.CouponCode}}: -{{.DiscountApplied.StringFixed 2}}</p>
{{end}}<p><strong>Total: {{.TotalFinal.StringFixed 2}}</strong></p>`))

func renderOrder(evt OrderPlaced) (string, error) {
	var buf bytes.Buffer
	if err := orderTmpl.Execute(&buf, evt); err != nil {
		return "", errors.Wrap(err, "render order email")
	}
	return buf.String(), nil
}

func (n *ResendNotifier) OrderPlaced(ctx context.Context, evt OrderPlaced) error {
	if evt.CustomerEmail == "" {
		return nil
	}
	html, err := renderOrder(evt)
	if err != nil {
		return err
	}

	sent, err := n.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{evt.CustomerEmail},
		Subject: fmt.Sprintf("Order #%d confirmed", evt.OrderID),
		Html:    html,
		Text:    fmt.Sprintf("Order #%d confirmed. Total: %s", evt.OrderID, evt.TotalFinal.StringFixed(2)),
		Headers: map[string]string{"X-Entity-Ref-ID": uuid.New().String()},
		Tags: []resend.Tag{
			{Name: "category", Value: "order_confirmation"},
			{Name: "order_id", Value: strconv.FormatInt(evt.OrderID, 10)},
		},
	})
	if err != nil {
		n.log.Error("failed to send order email", zap.Error(err), zap.Int64("order_id", evt.OrderID))
		return errors.Wrap(err, "send order email")
	}

	n.log.Info("order email sent", zap.String("email_id", sent.Id), zap.Int64("order_id", evt.OrderID))
	return nil
}
