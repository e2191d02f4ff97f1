package client

import (
	"fmt"

	httpclient "github.com/appleboy/go-httpclient"
	retry "github.com/appleboy/go-httpretry"

	"github.com/go-authgate/keygate/internal/config"
)

// NewHTTPAPIClient builds the signed, retrying client used to reach the
// external authentication API.
func NewHTTPAPIClient(cfg *config.Config) (*retry.Client, error) {
	mode := cfg.HTTPAPIAuthMode
	if mode == "" {
		mode = httpclient.AuthModeNone
	}
	header := cfg.HTTPAPIAuthHeader
	if header == "" {
		header = "X-API-Secret"
	}

	client, err := httpclient.NewAuthClient(
		mode,
		cfg.HTTPAPIAuthSecret,
		httpclient.WithTimeout(cfg.HTTPAPITimeout),
		httpclient.WithHeaderName(header),
		httpclient.WithInsecureSkipVerify(cfg.HTTPAPIInsecureSkipVerify),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}

	retryClient, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(client),
		retry.WithMaxRetries(cfg.HTTPAPIMaxRetries),
		retry.WithInitialRetryDelay(cfg.HTTPAPIRetryDelay),
		retry.WithMaxRetryDelay(cfg.HTTPAPIMaxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}

	return retryClient, nil
}
