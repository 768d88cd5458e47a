package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/assetstore/backend/internal/apperror"
	"github.com/assetstore/backend/internal/models"
	"github.com/assetstore/backend/internal/pkg/logger"
	"golang.org/x/oauth2/clientcredentials"
)

// IdentityManager administers subjects at the identity provider.
type IdentityManager interface {
	Block(ctx context.Context, sub string) error
	Roles(ctx context.Context, sub string) ([]models.Role, error)
}

type ManagementOptions struct {
	Domain       string // e.g. "tenant.eu.auth0.com" or a full base URL
	ClientID     string
	ClientSecret string
	Audience     string // defaults to <base>/api/v2/
}

// ManagementClient talks to the identity provider's management API with a
// machine-to-machine token obtained by the client credentials grant.
type ManagementClient struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

func NewManagementClient(ctx context.Context, opts ManagementOptions, log *logger.Logger) *ManagementClient {
	base := strings.TrimSuffix(opts.Domain, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	audience := opts.Audience
	if audience == "" {
		audience = base + "/api/v2/"
	}
	cc := clientcredentials.Config{
		ClientID:       opts.ClientID,
		ClientSecret:   opts.ClientSecret,
		TokenURL:       base + "/oauth/token",
		EndpointParams: url.Values{"audience": {audience}},
	}
	client := cc.Client(ctx)
	client.Timeout = 15 * time.Second
	return &ManagementClient{baseURL: base, http: client, log: log.With("service", "ManagementClient")}
}

// Block marks the subject as blocked so the provider stops issuing tokens for it.
func (m *ManagementClient) Block(ctx context.Context, sub string) error {
	body, _ := json.Marshal(map[string]bool{"blocked": true})
	resp, err := m.do(ctx, http.MethodPatch, m.userURL(sub), bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, sub); err != nil {
		return err
	}
	m.log.Info("Subject blocked", "sub", sub)
	return nil
}

func (m *ManagementClient) Roles(ctx context.Context, sub string) ([]models.Role, error) {
	resp, err := m.do(ctx, http.MethodGet, m.userURL(sub)+"/roles", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, sub); err != nil {
		return nil, err
	}
	roles := []models.Role{}
	if err := json.NewDecoder(resp.Body).Decode(&roles); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	return roles, nil
}

func (m *ManagementClient) userURL(sub string) string {
	return m.baseURL + "/api/v2/users/" + url.PathEscape(sub)
}

func (m *ManagementClient) do(ctx context.Context, method, target string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider %s: %w", method, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response, sub string) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperror.NotFound("identity", sub)
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("identity provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
