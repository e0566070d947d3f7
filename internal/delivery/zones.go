package delivery

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Matcher kinds for zone definitions.
const (
	MatchExact    = "exact"
	MatchRange    = "range"
	MatchCatchAll = "catchall"
)

// Zone maps a set of pincodes to a shipping charge and delivery estimate.
// Zones are evaluated in list order and the first match wins; the list must
// end with exactly one catch-all zone so every well-formed pincode resolves.
type Zone struct {
	Name          string   `json:"name"`
	Match         string   `json:"match"`
	Pincodes      []string `json:"pincodes,omitempty"`
	RangeStart    int      `json:"range_start,omitempty"`
	RangeEnd      int      `json:"range_end,omitempty"`
	BaseCharge    int64    `json:"base_charge"`
	FreeAbove     int64    `json:"free_above"`
	EstimatedDays int      `json:"estimated_days"`
}

func (z *Zone) matches(pincode string) bool {
	switch z.Match {
	case MatchExact:
		for _, p := range z.Pincodes {
			if p == pincode {
				return true
			}
		}
		return false
	case MatchRange:
		n, err := strconv.Atoi(pincode)
		if err != nil {
			return false
		}
		return n >= z.RangeStart && n <= z.RangeEnd
	case MatchCatchAll:
		return true
	}
	return false
}

func (z *Zone) validate(i int) error {
	if z.Name == "" {
		return fmt.Errorf("zone %d: name is required", i)
	}
	if z.BaseCharge < 0 {
		return fmt.Errorf("zone %q: base charge must not be negative", z.Name)
	}
	if z.EstimatedDays <= 0 {
		return fmt.Errorf("zone %q: estimated days must be positive", z.Name)
	}
	switch z.Match {
	case MatchExact:
		if len(z.Pincodes) == 0 {
			return fmt.Errorf("zone %q: exact matcher needs at least one pincode", z.Name)
		}
		for _, p := range z.Pincodes {
			if !isPincode(p) {
				return fmt.Errorf("zone %q: %q is not a 6-digit pincode", z.Name, p)
			}
		}
	case MatchRange:
		if z.RangeStart < 100000 || z.RangeEnd > 999999 || z.RangeStart > z.RangeEnd {
			return fmt.Errorf("zone %q: range [%d, %d] is not a valid 6-digit interval", z.Name, z.RangeStart, z.RangeEnd)
		}
	case MatchCatchAll:
	default:
		return fmt.Errorf("zone %q: unknown matcher %q", z.Name, z.Match)
	}
	return nil
}

// ValidateZones checks the zone table invariants: every zone well formed,
// exactly one catch-all, and the catch-all last in evaluation order. This runs
// at configuration-load time, never per quote.
func ValidateZones(zones []Zone) error {
	if len(zones) == 0 {
		return fmt.Errorf("zone table is empty")
	}
	catchAlls := 0
	for i := range zones {
		if err := zones[i].validate(i); err != nil {
			return err
		}
		if zones[i].Match == MatchCatchAll {
			catchAlls++
		}
	}
	if catchAlls != 1 {
		return fmt.Errorf("zone table needs exactly one catch-all zone, found %d", catchAlls)
	}
	if zones[len(zones)-1].Match != MatchCatchAll {
		return fmt.Errorf("catch-all zone must be last in the zone table")
	}
	return nil
}

// DefaultZones is the compiled-in zone table used when no zones file is
// configured. Amounts are in the smallest currency unit.
func DefaultZones() []Zone {
	return []Zone{
		{
			Name:          "local",
			Match:         MatchExact,
			Pincodes:      []string{"458441", "458440", "458468"},
			BaseCharge:    0,
			FreeAbove:     500,
			EstimatedDays: 1,
		},
		{
			Name:          "distant",
			Match:         MatchRange,
			RangeStart:    452001,
			RangeEnd:      452050,
			BaseCharge:    80,
			FreeAbove:     2000,
			EstimatedDays: 3,
		},
		{
			Name:          "remote",
			Match:         MatchCatchAll,
			BaseCharge:    150,
			FreeAbove:     3000,
			EstimatedDays: 7,
		},
	}
}

// LoadZones reads a zone table from a JSON file, falling back to the default
// table when path is empty. The table is validated before use.
func LoadZones(path string) ([]Zone, error) {
	zones := DefaultZones()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read zones file: %w", err)
		}
		zones = nil
		if err := json.Unmarshal(data, &zones); err != nil {
			return nil, fmt.Errorf("failed to parse zones file: %w", err)
		}
	}
	if err := ValidateZones(zones); err != nil {
		return nil, fmt.Errorf("invalid zone table: %w", err)
	}
	return zones, nil
}

func isPincode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
