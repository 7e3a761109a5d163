package library

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Setting keys.
const (
	SettingScanPath           = "scan_path"
	SettingTMDBAPIKey         = "tmdb_api_key"
	SettingAutoMatchThreshold = "auto_match_threshold"
	SettingNamingPreset       = "naming_preset"
	SettingSpecialsFolderName = "specials_folder_name"
	SettingExtrasFolderName   = "extras_folder_name"
)

// DefaultSettings are written on first open and never overwrite existing values.
var DefaultSettings = map[string]string{
	SettingScanPath:           "",
	SettingTMDBAPIKey:         "",
	SettingAutoMatchThreshold: "0.85",
	SettingNamingPreset:       "jellyfin",
	SettingSpecialsFolderName: "Specials",
	SettingExtrasFolderName:   "Extras",
}

// ValidateSetting checks that key is a known setting and value suits it.
func ValidateSetting(key, value string) error {
	if _, ok := DefaultSettings[key]; !ok {
		return fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
	}
	switch key {
	case SettingAutoMatchThreshold:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("%w: %s must be a number between 0 and 1", ErrInvalidSetting, key)
		}
	case SettingNamingPreset:
		switch strings.ToLower(value) {
		case "jellyfin", "plex":
		default:
			return fmt.Errorf("%w: %s must be jellyfin or plex", ErrInvalidSetting, key)
		}
	case SettingSpecialsFolderName, SettingExtrasFolderName:
		if strings.TrimSpace(value) == "" || strings.ContainsAny(value, `/\`) {
			return fmt.Errorf("%w: %s must be a plain folder name", ErrInvalidSetting, key)
		}
	}
	return nil
}

// SeedDefaults inserts any missing default settings.
func (s *Store) SeedDefaults() error {
	return s.inTx(func(tx *Tx) error {
		for k, v := range DefaultSettings {
			if _, err := tx.tx.Exec("INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)", k, v); err != nil {
				return fmt.Errorf("seed setting %s: %w", k, err)
			}
		}
		return nil
	})
}

// GetSetting returns the stored value for key.
// Returns ErrNotFound if the key is absent.
func (s *Store) GetSetting(key string) (string, error) {
	var v string
	if err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v); err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, mapSQLiteError(err))
	}
	return v, nil
}

// Setting returns the value for key, or def when absent or empty.
func (s *Store) Setting(key, def string) string {
	v, err := s.GetSetting(key)
	if err != nil || v == "" {
		return def
	}
	return v
}

// SettingFloat parses the value for key, returning def when it is absent or
// not a number.
func (s *Store) SettingFloat(key string, def float64) float64 {
	v, err := s.GetSetting(key)
	if err != nil {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// AllSettings returns every stored setting.
func (s *Store) AllSettings() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// SetSetting stores value under key, replacing any previous value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// SetSettings stores several settings atomically.
func (s *Store) SetSettings(values map[string]string) error {
	return s.inTx(func(tx *Tx) error {
		for k, v := range values {
			_, err := tx.tx.Exec(`
				INSERT INTO settings (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v)
			if err != nil {
				return fmt.Errorf("set setting %s: %w", k, err)
			}
		}
		return nil
	})
}

// SeedSettingIfEmpty stores value under key only when the current value is
// missing or empty. Reports whether it wrote.
func (s *Store) SeedSettingIfEmpty(key, value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	cur, err := s.GetSetting(key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if cur != "" {
		return false, nil
	}
	return true, s.SetSetting(key, value)
}
