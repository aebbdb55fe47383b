package mockapi

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// Zone is one conservation zone offered on the marketplace.
type Zone struct {
	Name          string `yaml:"name" json:"name"`
	Location      string `yaml:"location" json:"location"`
	PricePerTon   string `yaml:"price_per_ton" json:"price_per_ton"`
	Certification string `yaml:"certification" json:"certification"`
}

type zonesFile struct {
	Zones []Zone `yaml:"zones"`
}

// Price parses the per-ton price. Validity is checked at load time, so this
// never fails after LoadZones.
func (z Zone) Price() decimal.Decimal {
	price, _ := decimal.NewFromString(z.PricePerTon)
	return price
}

// LoadZones reads the conservation zone catalog from a YAML file.
func LoadZones(path string) ([]Zone, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read zones file %s: %w", path, err)
	}

	var file zonesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("unable to parse zones file %s: %w", path, err)
	}
	if len(file.Zones) == 0 {
		return nil, fmt.Errorf("zones file %s contains no zones", path)
	}

	for i, zone := range file.Zones {
		if zone.Name == "" || zone.Location == "" {
			return nil, fmt.Errorf("zone %d is missing name or location", i)
		}
		price, err := decimal.NewFromString(zone.PricePerTon)
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("zone %q has invalid price_per_ton %q", zone.Name, zone.PricePerTon)
		}
	}
	return file.Zones, nil
}

// MatchZone picks the zone whose name contains the buyer's preference,
// case-insensitive. With no preference or no match, the first catalog entry
// wins.
func MatchZone(zones []Zone, preferred string) Zone {
	preferred = strings.ToLower(strings.TrimSpace(preferred))
	if preferred != "" {
		for _, zone := range zones {
			if strings.Contains(strings.ToLower(zone.Name), preferred) {
				return zone
			}
		}
	}
	return zones[0]
}
