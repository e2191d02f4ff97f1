package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	retry "github.com/appleboy/go-httpretry"

	"github.com/go-authgate/keygate/internal/core"
	"github.com/go-authgate/keygate/internal/models"
)

// maxErrorBodyPreview bounds how much of a non-JSON error body ends up in logs.
const maxErrorBodyPreview = 200

// HTTPAPIAuthProvider delegates password checks to an external HTTP API.
// Request signing and retries are handled by the injected client.
type HTTPAPIAuthProvider struct {
	url    string
	client *retry.Client
}

var _ core.AuthProvider = (*HTTPAPIAuthProvider)(nil)

func NewHTTPAPIAuthProvider(url string, client *retry.Client) *HTTPAPIAuthProvider {
	return &HTTPAPIAuthProvider{url: url, client: client}
}

// APIAuthRequest is the request payload sent to external API
type APIAuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// APIAuthResponse is the expected response from external API
type APIAuthResponse struct {
	Success  bool   `json:"success"`
	UserID   string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (p *HTTPAPIAuthProvider) Authenticate(
	ctx context.Context,
	username, password string,
) (*core.AuthResult, error) {
	payload, err := json.Marshal(APIAuthRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.client.Post(
		ctx,
		p.url,
		retry.WithBody("application/json", bytes.NewBuffer(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTPAPIConnection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response", ErrHTTPAPIInvalidResp)
	}

	var authResp APIAuthResponse
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if err := json.Unmarshal(body, &authResp); err == nil && authResp.Message != "" {
			return nil, fmt.Errorf("%w: HTTP %d - %s",
				ErrHTTPAPIAuthFailed, resp.StatusCode, authResp.Message)
		}
		preview := string(body)
		if len(preview) > maxErrorBodyPreview {
			preview = preview[:maxErrorBodyPreview] + "..."
		}
		return nil, fmt.Errorf("%w: HTTP %d - %s",
			ErrHTTPAPIInvalidResp, resp.StatusCode, preview)
	}

	if err := json.Unmarshal(body, &authResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTPAPIInvalidResp, err)
	}
	if !authResp.Success {
		return nil, ErrHTTPAPIAuthFailed
	}
	if authResp.UserID == "" {
		return nil, fmt.Errorf(
			"%w: external API returned success=true but missing user_id",
			ErrHTTPAPIInvalidResp,
		)
	}

	return &core.AuthResult{
		Username:   username,
		ExternalID: authResp.UserID,
		Email:      authResp.Email,
		FullName:   authResp.FullName,
		Success:    true,
	}, nil
}

func (p *HTTPAPIAuthProvider) Name() string {
	return models.AuthSourceHTTPAPI
}
