// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
)

var (
	ErrSecretNotFound    = errors.New("secret not found")
	ErrInvalidStatusCode = errors.New("invalid status code received")
)

// NewStore selects a backing store based on the `secrets.backend`
// configuration key. Historical deployments split secrets between the config
// file and a remote parameter service; both now sit behind the same Store
// interface.
func NewStore() Store {
	switch backend := viper.GetString("secrets.backend"); backend {
	case "http":
		return NewHTTPStore(viper.GetString("secrets.endpoint"), viper.GetString("secrets.token"), resty.New())
	default:
		return &configStore{}
	}
}

// NewHTTPStore returns a Store backed by a remote parameter service.
func NewHTTPStore(endpoint string, token string, client *resty.Client) Store {
	return &httpStore{
		endpoint: endpoint,
		token:    token,
		client:   client,
	}
}

// configStore reads secrets from the loaded configuration under the
// `secrets.values` table.
type configStore struct{}

func (store *configStore) Fetch(_ context.Context, name string) (string, error) {
	key := fmt.Sprintf("secrets.values.%s", name)
	if !viper.IsSet(key) {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	return viper.GetString(key), nil
}

// httpStore fetches secrets from a remote parameter service. The service
// returns a JSON document with a `value` field.
type httpStore struct {
	endpoint string
	token    string
	client   *resty.Client
}

func (store *httpStore) Fetch(ctx context.Context, name string) (string, error) {
	resp, err := store.client.R().
		SetContext(ctx).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", store.token)).
		Get(fmt.Sprintf("%s/%s", store.endpoint, name))
	if err != nil {
		return "", err
	}

	if resp.StatusCode() == 404 {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}

	if resp.StatusCode() >= 400 {
		return "", fmt.Errorf("%w: %d", ErrInvalidStatusCode, resp.StatusCode())
	}

	value := gjson.GetBytes(resp.Body(), "value")
	if !value.Exists() {
		return "", fmt.Errorf("%w: %s has no value", ErrSecretNotFound, name)
	}

	return value.String(), nil
}
