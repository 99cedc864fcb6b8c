package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/i474232898/route-winds-aggregation/internal/weather"
)

var validate = validator.New()

// LoadLevelTable reads an altitude -> pressure level table from a YAML, JSON
// or TOML file (chosen by extension):
//
//	ceiling: 100hPa
//	levels:
//	  - max_ft: 1800
//	    level: 975hPa
//	  - max_ft: 3600
//	    level: 925hPa
func LoadLevelTable(path string) (weather.LevelTable, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return weather.LevelTable{}, fmt.Errorf("read LEVEL_TABLE_FILE: %w", err)
	}

	var table weather.LevelTable
	if err := v.Unmarshal(&table); err != nil {
		return weather.LevelTable{}, fmt.Errorf("parse LEVEL_TABLE_FILE: %w", err)
	}
	if err := validate.Struct(table); err != nil {
		return weather.LevelTable{}, fmt.Errorf("invalid LEVEL_TABLE_FILE: %w", err)
	}
	if err := table.Check(); err != nil {
		return weather.LevelTable{}, fmt.Errorf("invalid LEVEL_TABLE_FILE: %w", err)
	}
	return table, nil
}
