package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// New returns an empty registry stamped with the current time.
func New(version string) *VenueRegistry {
	return &VenueRegistry{
		Version:     version,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Venues:      []Entry{},
	}
}

// Key is the venue identity: the id, or the trimmed name when id is empty.
func (e Entry) Key() string {
	if id := strings.TrimSpace(e.ID); id != "" {
		return id
	}
	return strings.TrimSpace(e.Name)
}

func (r *VenueRegistry) find(key string) int {
	for i := range r.Venues {
		if r.Venues[i].Key() == key {
			return i
		}
	}
	return -1
}

// Add appends e unless a venue with the same key exists.
func (r *VenueRegistry) Add(e Entry) error {
	key := e.Key()
	if key == "" {
		return fmt.Errorf("venue needs an id or a name")
	}
	if r.find(key) >= 0 {
		return fmt.Errorf("venue with ID %s already exists", key)
	}
	r.Venues = append(r.Venues, e)
	r.touch()
	return nil
}

// Update sets one field of the venue with the given key.
func (r *VenueRegistry) Update(key, field, value string) error {
	i := r.find(key)
	if i < 0 {
		return fmt.Errorf("venue with ID %s not found", key)
	}
	e := &r.Venues[i]

	switch field {
	case "name":
		e.Name = value
	case "cuisine":
		e.Cuisine = value
	case "rating":
		rating, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid rating value: %w", err)
		}
		e.Rating = rating
	case "priceTier":
		e.PriceTier = value
	case "address":
		e.Address = value
	case "phone":
		e.Phone = value
	case "hours":
		e.Hours = value
	case "website":
		e.Website = value
	case "description":
		e.Description = value
	case "location":
		e.Location = value
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	r.touch()
	return nil
}

// Remove deletes the venue with the given key.
func (r *VenueRegistry) Remove(key string) error {
	i := r.find(key)
	if i < 0 {
		return fmt.Errorf("venue with ID %s not found", key)
	}
	r.Venues = append(r.Venues[:i], r.Venues[i+1:]...)
	r.touch()
	return nil
}

func (r *VenueRegistry) touch() {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
}

// Save writes reg as indented JSON, creating the directory if needed.
func Save(reg *VenueRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
