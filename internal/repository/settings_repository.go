package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

type SettingsRepository struct {
	db DBTX
}

func NewSettingsRepository(db DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// All returns every stored setting keyed by name.
func (r *SettingsRepository) All(ctx context.Context) (map[string]string, error) {
	return r.query(ctx, "SELECT `key`, `value` FROM app_settings")
}

// Get returns the requested settings; absent keys are simply missing from the map.
func (r *SettingsRepository) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	return r.query(ctx, "SELECT `key`, `value` FROM app_settings WHERE `key` IN ("+placeholders+")", args...)
}

func (r *SettingsRepository) query(ctx context.Context, query string, args ...any) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}

// ReplaceAll upserts every given setting in a single statement.
func (r *SettingsRepository) ReplaceAll(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, k, values[k])
	}
	tuples := strings.TrimSuffix(strings.Repeat("(?, ?), ", len(keys)), ", ")
	query := "REPLACE INTO app_settings (`key`, `value`) VALUES " + tuples
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
