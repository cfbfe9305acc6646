package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultTurnstileURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// TurnstileVerifier validates tokens against Cloudflare's siteverify endpoint.
type TurnstileVerifier struct {
	Secret   string
	Endpoint string
	Client   *http.Client
}

func NewTurnstileVerifier(secret, endpoint string) *TurnstileVerifier {
	if endpoint == "" {
		endpoint = DefaultTurnstileURL
	}
	return &TurnstileVerifier{Secret: secret, Endpoint: endpoint, Client: &http.Client{Timeout: 5 * time.Second}}
}

func (v *TurnstileVerifier) Verify(token, remoteIP string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	form := url.Values{}
	form.Set("secret", v.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	client := v.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.PostForm(v.Endpoint, form)
	if err != nil {
		return false, fmt.Errorf("turnstile request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return false, NewBadGatewayError(fmt.Sprintf("turnstile status %d", res.StatusCode))
	}
	var body struct {
		Success    bool     `json:"success"`
		ErrorCodes []string `json:"error-codes"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("turnstile decode: %w", err)
	}
	return body.Success, nil
}
