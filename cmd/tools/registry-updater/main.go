// cmd/tools/registry-updater/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"venue-finder/internal/common/logger"
	"venue-finder/internal/loader"
	"venue-finder/pkg/registry"
)

var registryPath string

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	removeCmd := flag.NewFlagSet("remove", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{addCmd, updateCmd, removeCmd, importCmd, validateCmd} {
		fs.StringVar(&registryPath, "path", "configs/venues.json", "Path to venue registry file")
	}

	// Add command flags
	idAdd := addCmd.String("id", "", "Venue ID (defaults to the name)")
	name := addCmd.String("name", "", "Venue name")
	cuisine := addCmd.String("cuisine", "", "Cuisine label (e.g., Italian)")
	rating := addCmd.Float64("rating", 0, "Rating")
	priceTier := addCmd.String("price", "", "Price tier symbol (e.g., $$)")
	address := addCmd.String("address", "", "Street address")
	location := addCmd.String("location", "", "Coordinates as \"lat,lon\"")
	phone := addCmd.String("phone", "", "Phone number")
	hours := addCmd.String("hours", "", "Opening hours")
	website := addCmd.String("website", "", "Website")
	description := addCmd.String("description", "", "Description")

	// Update command flags
	idUpdate := updateCmd.String("id", "", "Venue ID to update")
	field := updateCmd.String("field", "", "Field to update (name, rating, location, etc.)")
	value := updateCmd.String("value", "", "New value for the field")

	idRemove := removeCmd.String("id", "", "Venue ID to remove")

	csvPath := importCmd.String("csv", "", "CSV export of the venue sheet")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		_ = addCmd.Parse(os.Args[2:])
		if *name == "" || *cuisine == "" || *priceTier == "" || *location == "" {
			fmt.Println("Error: name, cuisine, price, and location are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		if _, err := loader.ParseLocation(*location); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		entry := registry.Entry{
			ID:          *idAdd,
			Name:        *name,
			Cuisine:     *cuisine,
			Rating:      *rating,
			PriceTier:   *priceTier,
			Address:     *address,
			Phone:       *phone,
			Hours:       *hours,
			Website:     *website,
			Description: *description,
			Location:    *location,
		}
		if err := editRegistry(func(reg *registry.VenueRegistry) error { return reg.Add(entry) }); err != nil {
			fmt.Printf("Error adding venue: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added venue: %s\n", entry.Key())

	case "update":
		_ = updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" {
			fmt.Println("Error: id and field are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if *field == "location" {
			if _, err := loader.ParseLocation(*value); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
		}
		err := editRegistry(func(reg *registry.VenueRegistry) error {
			return reg.Update(*idUpdate, *field, *value)
		})
		if err != nil {
			fmt.Printf("Error updating venue: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated venue %s, field %s to %s\n", *idUpdate, *field, *value)

	case "remove":
		_ = removeCmd.Parse(os.Args[2:])
		if *idRemove == "" {
			fmt.Println("Error: id is required for remove.")
			removeCmd.Usage()
			os.Exit(1)
		}
		if err := editRegistry(func(reg *registry.VenueRegistry) error { return reg.Remove(*idRemove) }); err != nil {
			fmt.Printf("Error removing venue: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed venue: %s\n", *idRemove)

	case "import":
		_ = importCmd.Parse(os.Args[2:])
		if *csvPath == "" {
			fmt.Println("Error: csv is required for import.")
			importCmd.Usage()
			os.Exit(1)
		}
		added, skipped, err := importCSV(*csvPath)
		if err != nil {
			fmt.Printf("Error importing venues: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Imported %d venues, skipped %d.\n", added, skipped)

	case "validate":
		_ = validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

// editRegistry loads the registry, or starts a new one, applies fn and
// saves the result.
func editRegistry(fn func(reg *registry.VenueRegistry) error) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = registry.New("1.0.0")
	}
	if err := fn(reg); err != nil {
		return err
	}
	return registry.Save(reg, registryPath)
}

func importCSV(path string) (added, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	records, err := loader.ParseCSV(f)
	if err != nil {
		return 0, 0, err
	}

	err = editRegistry(func(reg *registry.VenueRegistry) error {
		for _, rec := range records {
			rating, err := strconv.ParseFloat(rec.Rating, 64)
			if err != nil {
				fmt.Printf("Skipping %q: invalid rating %q\n", rec.Name, rec.Rating)
				skipped++
				continue
			}
			entry := registry.Entry{
				ID:          rec.ID,
				Name:        rec.Name,
				Cuisine:     rec.Cuisine,
				Rating:      rating,
				PriceTier:   rec.PriceTier,
				Address:     rec.Address,
				Phone:       rec.Phone,
				Hours:       rec.Hours,
				Website:     rec.Website,
				Description: rec.Description,
				Location:    rec.Location,
			}
			if err := reg.Add(entry); err != nil {
				fmt.Printf("Skipping %q: %v\n", rec.Name, err)
				skipped++
				continue
			}
			added++
		}
		return nil
	})
	return added, skipped, err
}

// validateRegistry runs the file through the same loader the service uses
// and reports every record it would drop.
func validateRegistry() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := loader.Load(ctx, loader.NewFileSource(registryPath), logger.NewNoOpLogger())
	if err != nil {
		return err
	}
	if result.Store.Len() == 0 {
		return fmt.Errorf("registry contains no usable venues")
	}

	for _, w := range result.Warnings {
		fmt.Printf("  dropped [%s] %s\n", w.Code, w.Details)
	}
	fmt.Printf("Registry validation passed. %d of %d venues usable, %d cuisines, %d price tiers.\n",
		result.Store.Len(), result.Records, len(result.Store.Cuisines()), len(result.Store.PriceTiers()))
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  add      Add a venue to the registry
  update   Update one field of an existing venue
  remove   Remove a venue
  import   Add every row of a venue sheet CSV export
  validate Load the registry the way the service does and report dropped rows
  help     Show this help message

Examples:
  registry-updater add -name "Bella Vista Italian" -cuisine Italian -rating 4.5 -price '$$' -location "40.7180,-74.0100"
  registry-updater update -id "Bella Vista Italian" -field rating -value 4.7
  registry-updater import -csv venues.csv -path configs/venues.json
  registry-updater validate -path configs/venues.json`)
}
