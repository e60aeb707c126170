package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// GetSetting returns the stored value for key and whether it exists.
func (db *DB) GetSetting(key string) (string, bool, error) {
	var v string
	err := db.conn.QueryRow(`SELECT value FROM app_settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, true, nil
}

// SetSetting inserts or replaces a setting.
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// IntSetting returns key as an int, or def when missing or malformed.
func (db *DB) IntSetting(key string, def int) int {
	v, ok, err := db.GetSetting(key)
	if err != nil || !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// BoolSetting returns key as a bool, or def when missing or malformed.
func (db *DB) BoolSetting(key string, def bool) bool {
	v, ok, err := db.GetSetting(key)
	if err != nil || !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
