package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	ory "github.com/ory/kratos-client-go"
)

// KratosVerifier resolves an Ory Kratos session token through the public whoami endpoint.
type KratosVerifier struct {
	client *ory.APIClient
}

func NewKratosVerifier(publicURL string, httpClient *http.Client) *KratosVerifier {
	cfg := ory.NewConfiguration()
	cfg.Servers = []ory.ServerConfiguration{
		{
			URL: publicURL,
		},
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}

	return &KratosVerifier{client: ory.NewAPIClient(cfg)}
}

func (v *KratosVerifier) VerifyToken(ctx context.Context, token string) (Identity, error) {
	session, resp, err := v.client.FrontendAPI.ToSession(ctx).XSessionToken(token).Execute()
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return Identity{}, fmt.Errorf("kratos whoami (status %d): %w", status, err)
	}

	if session == nil || !session.GetActive() {
		return Identity{}, errors.New("kratos session inactive")
	}

	identity := session.GetIdentity()

	return Identity{
		ID:    identity.GetId(),
		Email: emailTrait(identity.GetTraits()),
	}, nil
}

func emailTrait(traits interface{}) string {
	m, ok := traits.(map[string]interface{})
	if !ok {
		return ""
	}
	email, _ := m["email"].(string)
	return email
}
