package filtervenues

import "venue-finder/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["venues"],
	"properties": {
		"venues": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "name", "cuisine", "rating", "priceTier", "location"],
				"properties": {
					"id":        {"type": "string", "minLength": 1},
					"name":      {"type": "string"},
					"cuisine":   {"type": "string"},
					"rating":    {"type": "number"},
					"priceTier": {"type": "string"},
					"location": {
						"type": "object",
						"required": ["lat", "lon"],
						"properties": {
							"lat": {"type": "number"},
							"lon": {"type": "number"}
						}
					}
				}
			}
		},
		"criteria": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"cuisine":   {"type": ["string", "null"]},
				"minRating": {"type": ["number", "null"]},
				"priceTier": {"type": ["string", "null"]}
			}
		}
	}
}`)
