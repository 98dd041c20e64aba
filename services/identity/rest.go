package identsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/ebusmomentum88/school-portal-backend/core"
)

// restProvider talks to a hosted identity service's admin API
// (GoTrue/Supabase-style): credentials are created and deleted with a
// service-role token, and logins are verified via the password grant.
type restProvider struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ core.IdentityProvider = (*restProvider)(nil)

func NewRestProvider(conf core.IdentityConfig) *restProvider {
	return &restProvider{
		baseURL: conf.BaseURL,
		token:   conf.ServiceToken,
		client:  &http.Client{Timeout: conf.Timeout},
	}
}

func (p *restProvider) CreateCredential(ctx context.Context, handle, password string, metadata map[string]string) (core.Credential, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"handle":   handle,
		"password": password,
		"metadata": metadata,
	})
	if err != nil {
		return core.Credential{}, errors.Wrap(err, "encoding credential payload")
	}

	body, status, err := p.do(ctx, http.MethodPost, "/admin/credentials", payload)
	if err != nil {
		return core.Credential{}, err
	}
	switch {
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return core.Credential{}, core.ErrDuplicateHandle
	case status >= http.StatusBadRequest:
		return core.Credential{}, errors.Errorf("identity provider: creating credential: status %d: %s", status, body)
	}

	return core.Credential{
		Ref:      gjson.GetBytes(body, "id").String(),
		Handle:   handle,
		Metadata: metadata,
	}, nil
}

func (p *restProvider) DeleteCredential(ctx context.Context, ref string) error {
	body, status, err := p.do(ctx, http.MethodDelete, "/admin/credentials/"+ref, nil)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest && status != http.StatusNotFound {
		return errors.Errorf("identity provider: deleting credential: status %d: %s", status, body)
	}
	return nil
}

func (p *restProvider) Authenticate(ctx context.Context, handle, password string) (core.Credential, error) {
	payload, err := json.Marshal(map[string]string{
		"handle":   handle,
		"password": password,
	})
	if err != nil {
		return core.Credential{}, errors.Wrap(err, "encoding login payload")
	}

	body, status, err := p.do(ctx, http.MethodPost, "/token?grant_type=password", payload)
	if err != nil {
		return core.Credential{}, err
	}
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		return core.Credential{}, core.ErrAuthenticationFailed
	case status >= http.StatusInternalServerError:
		return core.Credential{}, errors.Errorf("identity provider: authenticating: status %d: %s", status, body)
	}

	user := gjson.GetBytes(body, "user")
	metadata := make(map[string]string)
	user.Get("metadata").ForEach(func(key, value gjson.Result) bool {
		metadata[key.String()] = value.String()
		return true
	})
	return core.Credential{
		Ref:      user.Get("id").String(),
		Handle:   handle,
		Metadata: metadata,
	}, nil
}

func (p *restProvider) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, errors.Wrap(err, "building identity request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.token))

	res, err := p.client.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, "calling identity provider")
	}
	defer func() { _ = res.Body.Close() }()

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, 0, errors.Wrap(err, "reading identity response")
	}
	return body, res.StatusCode, nil
}
