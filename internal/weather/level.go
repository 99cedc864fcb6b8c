package weather

import (
	"errors"
	"fmt"
	"math"
)

// DefaultAltitudeFt is used when the caller gives no usable altitude.
const DefaultAltitudeFt = 3000.0

// LevelBound maps every altitude up to and including MaxFt onto Level.
type LevelBound struct {
	MaxFt float64       `mapstructure:"max_ft" validate:"gte=0"`
	Level PressureLevel `mapstructure:"level" validate:"required"`
}

// LevelTable is an ordered altitude -> pressure level lookup.
type LevelTable struct {
	Bounds  []LevelBound  `mapstructure:"levels" validate:"required,min=1,dive"`
	Ceiling PressureLevel `mapstructure:"ceiling" validate:"required"`
}

// DefaultLevelTable returns the canonical table. Bounds sit roughly halfway
// between the standard-atmosphere heights of neighbouring levels.
func DefaultLevelTable() LevelTable {
	return LevelTable{
		Bounds: []LevelBound{
			{MaxFt: 1800, Level: "975hPa"},
			{MaxFt: 3600, Level: "925hPa"},
			{MaxFt: 5600, Level: "850hPa"},
			{MaxFt: 8100, Level: "800hPa"},
			{MaxFt: 11800, Level: "700hPa"},
			{MaxFt: 16000, Level: "600hPa"},
			{MaxFt: 21000, Level: "500hPa"},
			{MaxFt: 26800, Level: "400hPa"},
			{MaxFt: 32000, Level: "300hPa"},
			{MaxFt: 36300, Level: "250hPa"},
			{MaxFt: 41600, Level: "200hPa"},
			{MaxFt: 48800, Level: "150hPa"},
		},
		Ceiling: "100hPa",
	}
}

// Check verifies the bounds are strictly ascending.
func (t LevelTable) Check() error {
	if len(t.Bounds) == 0 {
		return errors.New("level table has no bounds")
	}
	if t.Ceiling == "" {
		return errors.New("level table has no ceiling level")
	}
	for i, b := range t.Bounds {
		if b.Level == "" {
			return fmt.Errorf("level table entry %d has no level", i)
		}
		if i > 0 && b.MaxFt <= t.Bounds[i-1].MaxFt {
			return fmt.Errorf("level table bounds must ascend: entry %d (%v ft) <= entry %d (%v ft)",
				i, b.MaxFt, i-1, t.Bounds[i-1].MaxFt)
		}
	}
	return nil
}

// Classify returns the pressure level for a cruising altitude in feet.
// A nil or non-finite altitude is treated as DefaultAltitudeFt.
func (t LevelTable) Classify(altitudeFt *float64) PressureLevel {
	alt := DefaultAltitudeFt
	if altitudeFt != nil && isFinite(*altitudeFt) {
		alt = *altitudeFt
	}

	for _, b := range t.Bounds {
		if alt <= b.MaxFt {
			return b.Level
		}
	}
	return t.Ceiling
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
