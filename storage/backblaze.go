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
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/kothar/go-backblaze"
	"github.com/marketscope/msdata/secrets"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ErrBucketNotFound = errors.New("bucket not found")
)

// BucketSecretName holds the name of the bucket all pipeline output is
// written to; the bucket is resolved through the secret boundary like any
// other credential.
const BucketSecretName = "marketscope-BUCKET_NAME"

// Backblaze is the production object-store adapter. The bucket handle is
// resolved once at construction and reused for every operation in the run.
type Backblaze struct {
	bucket *backblaze.Bucket
}

// NewBackblaze authorizes against B2 and resolves the configured bucket,
// looking the bucket name up through the resolver.
func NewBackblaze(ctx context.Context, resolver *secrets.Resolver) (*Backblaze, error) {
	bucketName, err := resolver.Get(ctx, BucketSecretName)
	if err != nil {
		return nil, err
	}

	b2, err := backblaze.NewB2(backblaze.Credentials{
		KeyID:          viper.GetString("backblaze.application_id"),
		ApplicationKey: viper.GetString("backblaze.application_key"),
	})
	if err != nil {
		log.Error().Err(err).Str("BucketName", bucketName).Msg("authorize backblaze failed")
		return nil, err
	}

	bucket, err := b2.Bucket(bucketName)
	if err != nil {
		log.Error().Err(err).Str("BucketName", bucketName).Msg("lookup bucket failed")
		return nil, err
	}
	if bucket == nil {
		log.Error().Str("BucketName", bucketName).Msg("bucket does not exist")
		return nil, ErrBucketNotFound
	}

	return &Backblaze{bucket: bucket}, nil
}

func (store *Backblaze) Put(_ context.Context, key string, body []byte) error {
	metadata := make(map[string]string)

	file, err := store.bucket.UploadFile(key, metadata, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("Key", key).Msg("save object to backblaze failed")
		return err
	}

	log.Debug().Str("FileName", file.Name).Int64("Size", file.ContentLength).Str("ID", file.ID).Msg("uploaded object to backblaze")
	return nil
}

func (store *Backblaze) Get(_ context.Context, key string) ([]byte, error) {
	_, rc, err := store.bucket.DownloadFileByName(key)
	if err != nil {
		log.Error().Err(err).Str("Key", key).Msg("download object from backblaze failed")
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
