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

	"github.com/alphadose/haxmap"
	"github.com/rs/zerolog/log"
)

var (
	ErrSecretAccess = errors.New("secret access denied")
)

// Store is the backing secret source. Implementations perform at most one
// lookup per call; memoization lives in the Resolver.
type Store interface {
	Fetch(ctx context.Context, name string) (string, error)
}

// Resolver memoizes secret lookups for the lifetime of a run. Repeated calls
// with the same name never re-hit the backing store. Entries are write-once
// so the cache needs no coordination beyond the map itself.
type Resolver struct {
	store Store
	cache *haxmap.Map[string, string]
}

func NewResolver(store Store) *Resolver {
	return &Resolver{
		store: store,
		cache: haxmap.New[string, string](),
	}
}

// Get returns the named secret, fetching it from the backing store on first
// use. A store failure or unknown name is fatal to the run; callers do not
// catch the error.
func (resolver *Resolver) Get(ctx context.Context, name string) (string, error) {
	if value, ok := resolver.cache.Get(name); ok {
		return value, nil
	}

	value, err := resolver.store.Fetch(ctx, name)
	if err != nil {
		log.Error().Err(err).Str("SecretName", name).Msg("could not fetch secret")
		return "", fmt.Errorf("%w: %s: %s", ErrSecretAccess, name, err.Error())
	}

	resolver.cache.Set(name, value)
	return value, nil
}
