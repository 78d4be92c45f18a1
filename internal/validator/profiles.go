package validator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/howard-metropia/trip-validation/internal/domain"
)

// ModeProfile is the motion envelope for one travel mode. Profiles are
// configuration, not logic: scoring code only ever consults these values,
// so tuning a mode never touches the scorers.
//
// Speeds are km/h, the route tolerance is meters.
type ModeProfile struct {
	MinSpeed        float64 `yaml:"min_speed"`
	MaxSpeed        float64 `yaml:"max_speed"`
	TargetMeanSpeed float64 `yaml:"target_mean_speed"`
	ToleranceBand   float64 `yaml:"tolerance_band"`
	RouteTolerance  float64 `yaml:"route_tolerance_m"`
}

// ProfileTable is the versioned mode → envelope table.
type ProfileTable struct {
	Version int                               `yaml:"version"`
	Modes   map[domain.TravelMode]ModeProfile `yaml:"modes"`
}

// DefaultProfiles returns the built-in envelope table. Values are tuning
// defaults; deployments override them with a YAML file.
func DefaultProfiles() ProfileTable {
	return ProfileTable{
		Version: 1,
		Modes: map[domain.TravelMode]ModeProfile{
			domain.ModeWalking:    {MinSpeed: 2, MaxSpeed: 7, TargetMeanSpeed: 4.5, ToleranceBand: 2.5, RouteTolerance: 50},
			domain.ModeBiking:     {MinSpeed: 5, MaxSpeed: 35, TargetMeanSpeed: 15, ToleranceBand: 8, RouteTolerance: 75},
			domain.ModeDriving:    {MinSpeed: 5, MaxSpeed: 130, TargetMeanSpeed: 45, ToleranceBand: 25, RouteTolerance: 100},
			domain.ModeTransit:    {MinSpeed: 5, MaxSpeed: 110, TargetMeanSpeed: 30, ToleranceBand: 20, RouteTolerance: 200},
			domain.ModeCarpool:    {MinSpeed: 5, MaxSpeed: 130, TargetMeanSpeed: 40, ToleranceBand: 25, RouteTolerance: 100},
			domain.ModeRidehail:   {MinSpeed: 5, MaxSpeed: 130, TargetMeanSpeed: 45, ToleranceBand: 25, RouteTolerance: 100},
			domain.ModeTrucking:   {MinSpeed: 5, MaxSpeed: 110, TargetMeanSpeed: 60, ToleranceBand: 30, RouteTolerance: 150},
			domain.ModeIntermodal: {MinSpeed: 2, MaxSpeed: 130, TargetMeanSpeed: 30, ToleranceBand: 25, RouteTolerance: 200},
		},
	}
}

// LoadProfiles reads an envelope table from a YAML file and validates it.
// An empty path returns the defaults.
func LoadProfiles(path string) (ProfileTable, error) {
	if path == "" {
		return DefaultProfiles(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ProfileTable{}, fmt.Errorf("read mode profiles: %w", err)
	}

	var table ProfileTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return ProfileTable{}, fmt.Errorf("parse mode profiles: %w", err)
	}

	if err := table.Validate(); err != nil {
		return ProfileTable{}, err
	}
	return table, nil
}

// Validate checks the table's internal consistency.
func (t ProfileTable) Validate() error {
	allModes := []domain.TravelMode{
		domain.ModeWalking, domain.ModeBiking, domain.ModeDriving,
		domain.ModeTransit, domain.ModeCarpool, domain.ModeRidehail,
		domain.ModeTrucking, domain.ModeIntermodal,
	}

	for _, mode := range allModes {
		p, ok := t.Modes[mode]
		if !ok {
			return fmt.Errorf("mode profiles: missing mode %q", mode)
		}
		if p.MinSpeed >= p.MaxSpeed {
			return fmt.Errorf("mode profiles: %q has min_speed %.1f >= max_speed %.1f", mode, p.MinSpeed, p.MaxSpeed)
		}
		if p.ToleranceBand <= 0 {
			return fmt.Errorf("mode profiles: %q has non-positive tolerance_band", mode)
		}
		if p.RouteTolerance <= 0 {
			return fmt.Errorf("mode profiles: %q has non-positive route_tolerance_m", mode)
		}
	}
	return nil
}

// For returns the envelope for a mode, falling back to the driving
// profile for modes absent from a partially overridden table.
func (t ProfileTable) For(mode domain.TravelMode) ModeProfile {
	if p, ok := t.Modes[mode]; ok {
		return p
	}
	return t.Modes[domain.ModeDriving]
}
