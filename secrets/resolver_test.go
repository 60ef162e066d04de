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
package secrets_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/go-resty/resty/v2"
	"github.com/marketscope/msdata/secrets"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// countingStore records how many times each name is fetched.
type countingStore struct {
	values  map[string]string
	fetches map[string]int
}

func (store *countingStore) Fetch(_ context.Context, name string) (string, error) {
	store.fetches[name]++
	value, ok := store.values[name]
	if !ok {
		return "", fmt.Errorf("no such secret: %s", name)
	}
	return value, nil
}

var _ = Describe("Resolver", func() {
	var (
		store    *countingStore
		resolver *secrets.Resolver
		ctx      context.Context
	)

	BeforeEach(func() {
		store = &countingStore{
			values:  map[string]string{"marketscope-EDGAR_IDENTITY": "ops@example.com"},
			fetches: make(map[string]int),
		}
		resolver = secrets.NewResolver(store)
		ctx = context.Background()
	})

	It("returns the backing store's value", func() {
		value, err := resolver.Get(ctx, "marketscope-EDGAR_IDENTITY")
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal("ops@example.com"))
	})

	It("fetches each name at most once", func() {
		for idx := 0; idx < 5; idx++ {
			_, err := resolver.Get(ctx, "marketscope-EDGAR_IDENTITY")
			Expect(err).NotTo(HaveOccurred())
		}

		Expect(store.fetches["marketscope-EDGAR_IDENTITY"]).To(Equal(1))
	})

	It("fails with a secret access error for unknown names", func() {
		_, err := resolver.Get(ctx, "marketscope-MISSING")
		Expect(err).To(MatchError(secrets.ErrSecretAccess))
	})

	It("does not memoize failures", func() {
		_, err := resolver.Get(ctx, "marketscope-MISSING")
		Expect(err).To(HaveOccurred())

		store.values["marketscope-MISSING"] = "late"
		value, err := resolver.Get(ctx, "marketscope-MISSING")
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal("late"))
	})
})

var _ = Describe("HTTP store", func() {
	It("extracts the value field from the service response", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer token-1"))
			switch r.URL.Path {
			case "/secrets/marketscope-BUCKET_NAME":
				fmt.Fprint(w, `{"name": "marketscope-BUCKET_NAME", "value": "marketscope-prod"}`)
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()

		store := secrets.NewHTTPStore(server.URL+"/secrets", "token-1", resty.New())

		value, err := store.Fetch(context.Background(), "marketscope-BUCKET_NAME")
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal("marketscope-prod"))

		_, err = store.Fetch(context.Background(), "marketscope-OTHER")
		Expect(err).To(MatchError(secrets.ErrSecretNotFound))
	})
})
