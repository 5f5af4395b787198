package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"salon-notification-service/internal/config"
)

// SMS sends notifications through the Twilio messages API.
type SMS struct {
	cfg     config.SMSConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewSMS(cfg config.SMSConfig) *SMS {
	return &SMS{cfg: cfg, client: &http.Client{}, breaker: newBreaker("sms")}
}

// SendSMS delivers one text message.
func (s *SMS) SendSMS(ctx context.Context, to, body string) error {
	if !strings.HasPrefix(to, "+") {
		return fmt.Errorf("invalid phone number: %s", to)
	}
	if s.cfg.AccountSID == "" || s.cfg.AuthToken == "" || s.cfg.FromNumber == "" {
		return fmt.Errorf("missing SMS configuration: AccountSID, AuthToken, or FromNumber is empty")
	}

	urlStr := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.cfg.AccountSID)
	msgData := url.Values{}
	msgData.Set("To", to)
	msgData.Set("From", s.cfg.FromNumber)
	msgData.Set("Body", body)

	_, err := s.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, strings.NewReader(msgData.Encode()))
		if err != nil {
			return nil, fmt.Errorf("failed to create SMS request: %w", err)
		}
		req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
		req.Header.Add("Accept", "application/json")
		req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			return nil, fmt.Errorf("twilio API returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to send SMS to %s: %w", to, err)
	}
	return nil
}
