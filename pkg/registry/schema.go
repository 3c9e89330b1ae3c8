// pkg/registry/schema.go
package registry

// VenueRegistry is the on-disk venue list format.
type VenueRegistry struct {
	Version     string  `json:"version"`
	LastUpdated string  `json:"lastUpdated"`
	Venues      []Entry `json:"venues"`
}

// Entry is one venue. Location is "lat,lon" in decimal degrees.
type Entry struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Cuisine     string  `json:"cuisine"`
	Rating      float64 `json:"rating"`
	PriceTier   string  `json:"priceTier"`
	Address     string  `json:"address"`
	Phone       string  `json:"phone,omitempty"`
	Hours       string  `json:"hours,omitempty"`
	Website     string  `json:"website,omitempty"`
	Description string  `json:"description,omitempty"`
	Location    string  `json:"location"`
}

// registrySchema checks structure only. Coordinate parsing and rating
// scale are left to the loader so bad rows are dropped, not fatal.
const registrySchema = `{
  "type": "object",
  "required": ["version", "venues"],
  "properties": {
    "version":     {"type": "string", "minLength": 1},
    "lastUpdated": {"type": "string"},
    "venues": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "cuisine", "rating", "priceTier", "location"],
        "properties": {
          "id":        {"type": "string"},
          "name":      {"type": "string"},
          "cuisine":   {"type": "string"},
          "rating":    {"type": "number"},
          "priceTier": {"type": "string"},
          "location":  {"type": "string"}
        }
      }
    }
  }
}`
