package gmailclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/jakechorley/staff-ops/internal/config"
	"github.com/jakechorley/staff-ops/pkg/utils"
)

// Client sends staff-ops notifications through the Gmail API
type Client struct {
	service      *gmail.Service
	ctx          context.Context
	from         string
	lastSendTime time.Time
	sendMutex    sync.Mutex
}

// NewClient creates a Gmail client from an existing OAuth token
// from is optional; when empty Gmail uses the authorised account as sender
func NewClient(ctx context.Context, oauthCfg *config.OAuthClientConfig, token *oauth2.Token, from string) (*Client, error) {
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	httpClient := oauthConfig.Client(ctx, token)

	service, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Client{
		service: service,
		ctx:     ctx,
		from:    from,
	}, nil
}
