// Package credential selects how requests to the agent service are
// authenticated and produces the matching client configuration.
package credential

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/config"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

type Kind string

const (
	KindKey     Kind = "key"
	KindDefault Kind = "default"
	KindCLI     Kind = "cli"
	KindToken   Kind = "token"
)

// assistantsAPIVersion is the Assistants API revision that carries
// code interpreter tool resources.
const assistantsAPIVersion = "v2"

// tokens are refreshed this long before they expire when the
// source gives no refresh hint
const refreshSkew = 2 * time.Minute

var ErrClosed = errors.New("credential is closed")

// Credential authenticates calls to the agent service, either with an API
// key header or with bearer tokens from an azcore.TokenCredential.
type Credential struct {
	kind   Kind
	apiKey string
	source azcore.TokenCredential
	scope  string

	mu     sync.Mutex
	cached azcore.AccessToken
	closed bool
}

// New builds the credential selected by cfg.AuthMode.
func New(cfg *config.Config) (*Credential, error) {
	log := logger.For(logger.CREDENTIAL)

	switch cfg.AuthMode {
	case config.AuthModeKey:
		log.Info().Msg("Using API key credential")
		return &Credential{kind: KindKey, apiKey: cfg.APIKey}, nil

	case config.AuthModeDefault:
		src, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		log.Info().Str("scope", cfg.TokenScope).Msg("Using default Azure credential chain")
		return NewWithSource(KindDefault, src, cfg.TokenScope), nil

	case config.AuthModeCLI:
		src, err := azidentity.NewAzureCLICredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure cli credential: %w", err)
		}
		log.Info().Str("scope", cfg.TokenScope).Msg("Using Azure CLI credential")
		return NewWithSource(KindCLI, src, cfg.TokenScope), nil

	case config.AuthModeToken:
		src, err := NewStaticToken(cfg.AccessToken)
		if err != nil {
			return nil, err
		}
		log.Info().Time("expires_on", src.expiresOn).Msg("Using pre-issued access token")
		return NewWithSource(KindToken, src, cfg.TokenScope), nil
	}

	return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
}

// NewWithSource wraps an arbitrary token source.
func NewWithSource(kind Kind, src azcore.TokenCredential, scope string) *Credential {
	return &Credential{kind: kind, source: src, scope: scope}
}

func (c *Credential) Kind() Kind {
	return c.kind
}

// ClientConfig returns the go-openai configuration for this credential.
// API keys travel in the api-key header; every other kind sends bearer
// tokens through an authorizing transport.
func (c *Credential) ClientConfig(endpoint, apiVersion string) openai.ClientConfig {
	if c.kind == KindKey {
		cfg := openai.DefaultAzureConfig(c.apiKey, endpoint)
		cfg.APIVersion = apiVersion
		cfg.AssistantVersion = assistantsAPIVersion
		return cfg
	}

	cfg := openai.DefaultAzureConfig("", endpoint)
	cfg.APIType = openai.APITypeAzureAD
	cfg.APIVersion = apiVersion
	cfg.AssistantVersion = assistantsAPIVersion
	cfg.HTTPClient = &http.Client{
		Transport: &bearerTransport{cred: c, base: http.DefaultTransport},
	}
	return cfg
}

// Token returns a bearer token, fetching a new one when the cached token is
// due for refresh.
func (c *Credential) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrClosed
	}
	if c.source == nil {
		return "", fmt.Errorf("credential kind %q does not issue tokens", c.kind)
	}

	if c.cached.Token != "" && time.Now().Before(c.refreshAt()) {
		return c.cached.Token, nil
	}

	tok, err := c.source.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{c.scope}})
	if err != nil {
		return "", fmt.Errorf("failed to acquire access token: %w", err)
	}

	c.cached = tok
	logger.For(logger.CREDENTIAL).Debug().Time("expires_on", tok.ExpiresOn).Msg("Acquired access token")
	return tok.Token, nil
}

func (c *Credential) refreshAt() time.Time {
	if !c.cached.RefreshOn.IsZero() {
		return c.cached.RefreshOn
	}
	return c.cached.ExpiresOn.Add(-refreshSkew)
}

// Close forgets any cached token. Later calls are no-ops.
func (c *Credential) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.cached = azcore.AccessToken{}
	c.apiKey = ""
	return nil
}

type bearerTransport struct {
	cred *Credential
	base http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.cred.Token(req.Context())
	if err != nil {
		return nil, err
	}

	authed := req.Clone(req.Context())
	authed.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(authed)
}
