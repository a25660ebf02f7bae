// Package vaultclient reads secrets from a Vault KV v2 mount over its HTTP
// API. draftd uses it to fetch the JWT signing secret at startup so the
// secret never has to live in the process environment.
package vaultclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	addr       string
	token      string
	httpClient *http.Client
}

func New(addr, token string) *Client {
	return &Client{
		addr:       strings.TrimRight(addr, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ReadKV reads a KV v2 secret and unmarshals its data payload into out.
func (c *Client) ReadKV(ctx context.Context, path string, out any) error {
	if c == nil {
		return errors.New("vault client is nil")
	}
	if c.addr == "" || c.token == "" {
		return errors.New("vault addr or token missing")
	}
	if path == "" {
		return errors.New("vault path is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.addr+"/v1/"+strings.TrimLeft(path, "/"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Vault-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vault read failed: status %d", resp.StatusCode)
	}

	var envelope struct {
		Data struct {
			Data json.RawMessage `json:"data"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return err
	}
	if len(envelope.Data.Data) == 0 {
		return errors.New("vault response missing data")
	}
	return json.Unmarshal(envelope.Data.Data, out)
}

// SigningSecret fetches the token signing secret stored under the
// "jwt_secret" key at path. An empty stored value is an error so a
// misconfigured mount cannot silently disable signature verification.
func (c *Client) SigningSecret(ctx context.Context, path string) (string, error) {
	var payload struct {
		JWTSecret string `json:"jwt_secret"`
	}
	if err := c.ReadKV(ctx, path, &payload); err != nil {
		return "", err
	}
	if payload.JWTSecret == "" {
		return "", fmt.Errorf("vault secret at %s has no jwt_secret key", path)
	}
	return payload.JWTSecret, nil
}
