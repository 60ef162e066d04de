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
	"os"
	"path/filepath"
)

// Filesystem stores objects under a local root directory, mirroring bucket
// keys as relative paths. Early deployments wrote to local disk; the adapter
// remains for development and tests, selected by the storage.backend
// configuration key.
type Filesystem struct {
	Root string
}

func NewFilesystem(root string) *Filesystem {
	return &Filesystem{Root: root}
}

func (store *Filesystem) Put(_ context.Context, key string, body []byte) error {
	path := filepath.Join(store.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, body, 0o644)
}

func (store *Filesystem) Get(_ context.Context, key string) ([]byte, error) {
	return os.ReadFile(filepath.Join(store.Root, filepath.FromSlash(key)))
}
