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
package library

import (
	"context"
	"errors"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marketscope/msdata/data"
	"github.com/rs/zerolog/log"
)

var (
	ErrLeaseHeld = errors.New("run lease is held by another process")
)

// runLeaseKey identifies the pipeline's advisory lock. One fixed pipeline
// means one fixed key.
const runLeaseKey int64 = 0x6d736461746131

// Library is the run ledger: it records pipeline run outcomes and arbitrates
// the run lease so two scheduled runs cannot race on the same storage keys.
type Library struct {
	DBUrl string
	Pool  *pgxpool.Pool

	leaseConn *pgxpool.Conn
}

// NewFromDB connects the run ledger to the configured database.
func NewFromDB(ctx context.Context, dbURL string) (*Library, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &Library{DBUrl: dbURL, Pool: pool}, nil
}

// Close releases the lease connection, if held, and the database pool.
func (myLibrary *Library) Close() {
	if myLibrary.leaseConn != nil {
		myLibrary.leaseConn.Release()
		myLibrary.leaseConn = nil
	}
	myLibrary.Pool.Close()
}

// AcquireRunLease takes the pipeline's advisory lock. The lock is session
// scoped so the connection is pinned until ReleaseRunLease. Returns
// ErrLeaseHeld when another run holds the lease.
func (myLibrary *Library) AcquireRunLease(ctx context.Context) error {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}

	var acquired bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", runLeaseKey).Scan(&acquired); err != nil {
		conn.Release()
		return err
	}

	if !acquired {
		conn.Release()
		return ErrLeaseHeld
	}

	myLibrary.leaseConn = conn
	return nil
}

// ReleaseRunLease drops the advisory lock and unpins the connection.
func (myLibrary *Library) ReleaseRunLease(ctx context.Context) {
	if myLibrary.leaseConn == nil {
		return
	}

	if _, err := myLibrary.leaseConn.Exec(ctx, "SELECT pg_advisory_unlock($1)", runLeaseKey); err != nil {
		log.Error().Err(err).Msg("could not release run lease")
	}

	myLibrary.leaseConn.Release()
	myLibrary.leaseConn = nil
}

// SaveRun records one pipeline run's outcome in the ledger.
func (myLibrary *Library) SaveRun(ctx context.Context, summary *data.RunSummary) error {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `INSERT INTO ingest_runs (
		"run_id",
		"start_time",
		"end_time",
		"status",
		"num_filings",
		"num_tickers",
		"failed_at",
		"error_text"
	) VALUES (
		$1,
		$2,
		$3,
		$4,
		$5,
		$6,
		$7,
		$8
	)`, summary.RunID, summary.StartTime, summary.EndTime, summary.Status,
		summary.NumFilings, summary.NumTickers, summary.FailedAt, summary.ErrorText)

	return err
}

// RecentRuns returns the most recent run records, newest first.
func (myLibrary *Library) RecentRuns(ctx context.Context, limit int) ([]*data.RunSummary, error) {
	var runs []*data.RunSummary
	err := pgxscan.Select(ctx, myLibrary.Pool, &runs,
		`SELECT run_id, start_time, end_time, status, num_filings, num_tickers, failed_at, error_text
		 FROM ingest_runs ORDER BY start_time DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}

	return runs, nil
}
