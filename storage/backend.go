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
package storage

import (
	"context"

	"github.com/marketscope/msdata/secrets"
	"github.com/spf13/viper"
)

// NewObjectStore selects the configured storage backend. All backends sit
// behind the same ObjectStore interface; deployments choose by configuration
// rather than by source branch.
func NewObjectStore(ctx context.Context, resolver *secrets.Resolver) (ObjectStore, error) {
	switch backend := viper.GetString("storage.backend"); backend {
	case "filesystem":
		return NewFilesystem(viper.GetString("storage.root")), nil
	default:
		return NewBackblaze(ctx, resolver)
	}
}
