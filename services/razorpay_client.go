package services

import (
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"

	"cod-verifier/models"
)

// CustomerHints are prefill details passed to the gateway checkout UI.
type CustomerHints struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// RazorpayService wraps the gateway order, payment and refund APIs for the
// fixed-amount token transaction.
type RazorpayService struct {
	client   *razorpay.Client
	KeyID    string
	amount   int
	currency string
}

func NewRazorpayService(keyID, keySecret string, amount int, currency string) *RazorpayService {
	return &RazorpayService{
		client:   razorpay.NewClient(keyID, keySecret),
		KeyID:    keyID,
		amount:   amount,
		currency: currency,
	}
}

// CreateTokenOrder creates a gateway order for the token amount, embedding
// the checkout order reference in the receipt and notes so webhook events
// can be correlated without trusting anything the browser sends.
func (s *RazorpayService) CreateTokenOrder(orderRef string, customer CustomerHints) (string, error) {
	notes := map[string]interface{}{
		"purpose":       "COD token payment",
		"auto_refund":   "yes",
		"cod_order_ref": orderRef,
	}
	if customer.Name != "" {
		notes["customer_name"] = customer.Name
	}
	if customer.Email != "" {
		notes["customer_email"] = customer.Email
	}
	if customer.Phone != "" {
		notes["customer_phone"] = customer.Phone
	}

	data := map[string]interface{}{
		"amount":   s.amount,
		"currency": s.currency,
		"receipt":  ReceiptForOrderRef(orderRef),
		"notes":    notes,
	}

	body, err := s.client.Order.Create(data, nil)
	if err != nil {
		return "", &models.GatewayError{Provider: "razorpay", Err: err}
	}

	orderID, ok := body["id"].(string)
	if !ok || orderID == "" {
		return "", &models.GatewayError{Provider: "razorpay", Err: fmt.Errorf("order response missing id")}
	}
	return orderID, nil
}

// Refund issues the full token refund for a captured payment. Called
// exactly once per intent, only by the resolver.
func (s *RazorpayService) Refund(paymentID string) (string, error) {
	data := map[string]interface{}{
		"speed": "normal",
		"notes": map[string]interface{}{
			"reason":      "COD token verification complete",
			"auto_refund": "yes",
		},
	}

	body, err := s.client.Payment.Refund(paymentID, s.amount, data, nil)
	if err != nil {
		return "", &models.GatewayError{Provider: "razorpay", Err: err}
	}

	refundID, ok := body["id"].(string)
	if !ok || refundID == "" {
		return "", &models.GatewayError{Provider: "razorpay", Err: fmt.Errorf("refund response missing id")}
	}
	return refundID, nil
}

// FetchPaymentStatus reads the gateway-side status of a payment.
func (s *RazorpayService) FetchPaymentStatus(paymentID string) (string, error) {
	body, err := s.client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return "", &models.GatewayError{Provider: "razorpay", Err: err}
	}

	status, ok := body["status"].(string)
	if !ok {
		return "", &models.GatewayError{Provider: "razorpay", Err: fmt.Errorf("payment response missing status")}
	}
	return status, nil
}

// ReceiptForOrderRef builds the gateway receipt that carries the checkout
// order reference. The webhook path falls back to parsing it when the
// notes are missing.
func ReceiptForOrderRef(orderRef string) string {
	return "cod_order_" + orderRef
}

// TestOrderID fabricates a deterministic-looking order id for test mode.
func TestOrderID() string {
	return fmt.Sprintf("order_test_%d", time.Now().Unix())
}
