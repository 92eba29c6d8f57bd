package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// apiClient is shared by every worker. A 401 triggers one refresh of the
// token pair before the request is retried.
type apiClient struct {
	baseURL string
	http    *http.Client

	mu     sync.RWMutex
	tokens tokenPair
}

func newAPIClient(baseURL string, hc *http.Client) *apiClient {
	return &apiClient{baseURL: baseURL, http: hc}
}

func (c *apiClient) Login(ctx context.Context, email, password string) error {
	var pair tokenPair
	status, err := c.send(ctx, http.MethodPost, "/api/login", "",
		map[string]string{"email": email, "password": password}, &pair)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("login returned %d", status)
	}
	c.setTokens(pair)
	return nil
}

func (c *apiClient) refresh(ctx context.Context, used string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another worker already rotated the pair.
	if c.tokens.AccessToken != used {
		return nil
	}

	var pair tokenPair
	status, err := c.send(ctx, http.MethodPost, "/api/refresh", "",
		map[string]string{"refreshToken": c.tokens.RefreshToken}, &pair)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("refresh returned %d", status)
	}
	c.tokens = pair
	return nil
}

func (c *apiClient) setTokens(p tokenPair) {
	c.mu.Lock()
	c.tokens = p
	c.mu.Unlock()
}

func (c *apiClient) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens.AccessToken
}

// Do issues an authenticated request and decodes a 2xx body into out.
func (c *apiClient) Do(ctx context.Context, method, path string, body, out any) (int, error) {
	token := c.accessToken()
	status, err := c.send(ctx, method, path, token, body, out)
	if err != nil || status != http.StatusUnauthorized {
		return status, err
	}

	if err := c.refresh(ctx, token); err != nil {
		return status, err
	}
	return c.send(ctx, method, path, c.accessToken(), body, out)
}

func (c *apiClient) send(ctx context.Context, method, path, token string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}
