package library

import (
	"fmt"
	"time"
)

const destinationColumns = `id, name, type, base_path, ssh_host, ssh_port, ssh_user, ssh_key_path, ssh_key_passphrase,
	movie_template, tv_template, created_at, updated_at`

func scanDestination(row rowScanner) (*Destination, error) {
	d := &Destination{}
	err := row.Scan(&d.ID, &d.Name, &d.Type, &d.BasePath, &d.SSHHost, &d.SSHPort, &d.SSHUser, &d.SSHKeyPath,
		&d.SSHKeyPassphrase, &d.MovieTemplate, &d.TVTemplate, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// AddDestination inserts a new destination.
// Returns ErrDuplicate if the name is taken.
func (s *Store) AddDestination(d *Destination) error {
	now := time.Now()
	if d.Type == "" {
		d.Type = DestinationLocal
	}
	result, err := s.db.Exec(`
		INSERT INTO destinations (name, type, base_path, ssh_host, ssh_port, ssh_user, ssh_key_path,
			ssh_key_passphrase, movie_template, tv_template, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Name, d.Type, d.BasePath, d.SSHHost, d.SSHPort, d.SSHUser, d.SSHKeyPath,
		d.SSHKeyPassphrase, d.MovieTemplate, d.TVTemplate, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert destination: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	d.ID = id
	d.CreatedAt = now
	d.UpdatedAt = now
	return nil
}

// GetDestination retrieves a destination by ID.
// Returns ErrNotFound if the destination does not exist.
func (s *Store) GetDestination(id int64) (*Destination, error) {
	d, err := scanDestination(s.db.QueryRow("SELECT "+destinationColumns+" FROM destinations WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("get destination %d: %w", id, mapSQLiteError(err))
	}
	return d, nil
}

// GetDestinationByName retrieves a destination by its unique name.
func (s *Store) GetDestinationByName(name string) (*Destination, error) {
	d, err := scanDestination(s.db.QueryRow("SELECT "+destinationColumns+" FROM destinations WHERE name = ?", name))
	if err != nil {
		return nil, fmt.Errorf("get destination %q: %w", name, mapSQLiteError(err))
	}
	return d, nil
}

// ListDestinations returns all destinations ordered by name.
func (s *Store) ListDestinations() ([]*Destination, error) {
	rows, err := s.db.Query("SELECT " + destinationColumns + " FROM destinations ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Destination
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, fmt.Errorf("scan destination: %w", err)
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

// UpdateDestination writes every mutable field of d.
func (s *Store) UpdateDestination(d *Destination) error {
	now := time.Now()
	result, err := s.db.Exec(`
		UPDATE destinations SET name = ?, type = ?, base_path = ?, ssh_host = ?, ssh_port = ?, ssh_user = ?,
			ssh_key_path = ?, ssh_key_passphrase = ?, movie_template = ?, tv_template = ?, updated_at = ?
		WHERE id = ?`,
		d.Name, d.Type, d.BasePath, d.SSHHost, d.SSHPort, d.SSHUser,
		d.SSHKeyPath, d.SSHKeyPassphrase, d.MovieTemplate, d.TVTemplate, now, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update destination %d: %w", d.ID, mapSQLiteError(err))
	}
	if err := checkAffected(result, "update destination", d.ID); err != nil {
		return err
	}
	d.UpdatedAt = now
	return nil
}

// DeleteDestination removes a destination. Groups and jobs that referenced
// it keep their rows with the reference cleared.
func (s *Store) DeleteDestination(id int64) error {
	if _, err := s.db.Exec("DELETE FROM destinations WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete destination %d: %w", id, mapSQLiteError(err))
	}
	return nil
}
