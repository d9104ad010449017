// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/amacneil/dbmate/v2/pkg/dbmate"
	_ "github.com/amacneil/dbmate/v2/pkg/driver/postgres"
)

var ErrNoMigrations = errors.New("postgres: no migrations filesystem configured")

func (p *PostgresConnectionPool) MigrateUp(ctx context.Context) error {
	dm, err := p.dbmate(ctx)
	if err != nil {
		return err
	}
	return dm.CreateAndMigrate()
}

// MigrateDown rolls back the most recent migration only.
func (p *PostgresConnectionPool) MigrateDown(ctx context.Context) error {
	dm, err := p.dbmate(ctx)
	if err != nil {
		return err
	}
	return dm.Rollback()
}

func (p *PostgresConnectionPool) dbmate(ctx context.Context) (*dbmate.DB, error) {
	if p.migrations == nil {
		return nil, ErrNoMigrations
	}
	dm := dbmate.New(p.primaryConfig.URL(false))
	dm.FS = p.migrations
	dm.MigrationsDir = []string{p.migrationsDir}
	dm.AutoDumpSchema = false
	dm.Log = &slogWriter{ctx: ctx}
	return dm, nil
}

// slogWriter forwards dbmate's line oriented progress output to slog.
type slogWriter struct {
	ctx context.Context
}

func (w *slogWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimSpace(p), []byte("\n")) {
		if len(line) > 0 {
			slog.InfoContext(w.ctx, "dbmate", slog.String("output", string(line)))
		}
	}
	return len(p), nil
}
