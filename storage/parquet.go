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
	"github.com/marketscope/msdata/data"
	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// barsToParquet encodes a history table as parquet bytes, entirely in
// memory; history objects are small enough that spooling to disk buys
// nothing.
func barsToParquet(bars []*data.Bar) ([]byte, error) {
	fw := buffer.NewBufferFile()

	pw, err := writer.NewParquetWriter(fw, new(data.Bar), 4)
	if err != nil {
		log.Error().Err(err).Msg("could not create parquet writer")
		return nil, err
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, bar := range bars {
		if err := pw.Write(bar); err != nil {
			log.Error().Err(err).Str("Date", bar.Date).Msg("parquet write failed for bar")
			return nil, err
		}
	}

	if err := pw.WriteStop(); err != nil {
		log.Error().Err(err).Msg("parquet write failed")
		return nil, err
	}

	if err := fw.Close(); err != nil {
		return nil, err
	}

	return fw.Bytes(), nil
}

func barsFromParquet(body []byte) ([]*data.Bar, error) {
	fr := buffer.NewBufferFileFromBytes(body)

	pr, err := reader.NewParquetReader(fr, new(data.Bar), 4)
	if err != nil {
		log.Error().Err(err).Msg("could not create parquet reader")
		return nil, err
	}
	defer pr.ReadStop()

	numRows := int(pr.GetNumRows())
	rows := make([]data.Bar, numRows)
	if err := pr.Read(&rows); err != nil {
		log.Error().Err(err).Msg("parquet read failed")
		return nil, err
	}

	bars := make([]*data.Bar, 0, numRows)
	for idx := range rows {
		bars = append(bars, &rows[idx])
	}

	return bars, nil
}
