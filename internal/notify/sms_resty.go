package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/spec-kit/workorder-service/internal/config"
)

// SMSSender delivers one text message to one phone number. The gateway
// has no batch endpoint, so fan-out sends individually.
type SMSSender interface {
	Send(ctx context.Context, phone, text string) error
}

type httpSMSSender struct {
	client *resty.Client
}

// NewHTTPSMSSender builds the production SMS channel.
func NewHTTPSMSSender(cfg config.NotifyConfig) SMSSender {
	client := resty.New().
		SetBaseURL(cfg.SMSGatewayURL).
		SetAuthToken(cfg.SMSGatewayToken).
		SetTimeout(10 * time.Second)
	return &httpSMSSender{client: client}
}

func (s *httpSMSSender) Send(ctx context.Context, phone, text string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"to": phone, "text": text}).
		Post("/messages")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("sms gateway: status %d", resp.StatusCode())
	}
	return nil
}
