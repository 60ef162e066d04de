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
package healthcheck

import (
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

// PingSuccess signals a completed pipeline run to the monitoring service.
// A missing ping URL disables monitoring; a ping failure never fails the run.
func PingSuccess(runID string) {
	ping("", runID)
}

// PingFailure signals a failed pipeline run to the monitoring service.
func PingFailure(runID string) {
	ping("/fail", runID)
}

func ping(suffix string, runID string) {
	pingURL := viper.GetString("healthchecks.ping_url")
	if pingURL == "" {
		return
	}

	client := resty.New()
	resp, err := client.R().
		SetQueryParam("rid", runID).
		Get(fmt.Sprintf("%s%s", pingURL, suffix))
	if err != nil {
		log.Warn().Err(err).Msg("could not ping healthcheck")
		return
	}

	if resp.StatusCode() != 200 {
		log.Warn().Err(fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())).Msg("could not ping healthcheck")
	}
}
