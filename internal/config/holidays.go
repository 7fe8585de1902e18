package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pickupsched/internal/model"
)

// DefaultHolidaysPath is used when scheduling.holidays_path is unset.
const DefaultHolidaysPath = "configs/holidays.yaml"

// HolidayConfig represents a holiday configuration.
type HolidayConfig struct {
	Date string `yaml:"date"` // "2026-12-25"
	Name string `yaml:"name"` // "Christmas Day"
}

// HolidayCalendar is the root of holidays.yaml. Every listed date becomes a
// block exception for each affiliate that has scheduling enabled.
type HolidayCalendar struct {
	Holidays []HolidayConfig `yaml:"holidays"`
}

// Holiday is a validated calendar entry.
type Holiday struct {
	Date model.Date
	Name string
}

// LoadHolidayCalendar loads and validates the holiday calendar.
func LoadHolidayCalendar(path string) (*HolidayCalendar, error) {
	if path == "" {
		path = DefaultHolidaysPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holidays config: %w", err)
	}
	return parseHolidayCalendar(data)
}

func parseHolidayCalendar(data []byte) (*HolidayCalendar, error) {
	var cal HolidayCalendar
	if err := yaml.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("parse holidays config: %w", err)
	}

	if err := cal.Validate(); err != nil {
		return nil, fmt.Errorf("validate holidays config: %w", err)
	}
	return &cal, nil
}

// Validate checks the configuration for errors.
func (c *HolidayCalendar) Validate() error {
	seen := make(map[string]bool)
	for i, h := range c.Holidays {
		if h.Date == "" {
			return fmt.Errorf("holiday[%d]: date is required", i)
		}
		if _, err := model.ParseDate(h.Date); err != nil {
			return fmt.Errorf("holiday[%d]: invalid date format '%s', expected YYYY-MM-DD", i, h.Date)
		}
		if seen[h.Date] {
			return fmt.Errorf("holiday[%d]: duplicate date %s", i, h.Date)
		}
		seen[h.Date] = true
		if len(h.Name) > model.MaxReasonLength {
			return fmt.Errorf("holiday[%d]: name longer than %d characters", i, model.MaxReasonLength)
		}
	}
	return nil
}

// Entries returns the holidays dated on or after from.
func (c *HolidayCalendar) Entries(from model.Date) []Holiday {
	out := make([]Holiday, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		d, err := model.ParseDate(h.Date)
		if err != nil || d.Before(from) {
			continue
		}
		out = append(out, Holiday{Date: d, Name: h.Name})
	}
	return out
}

// IsHoliday checks if a date is a holiday.
func (c *HolidayCalendar) IsHoliday(date model.Date) (bool, string) {
	dateStr := date.String()
	for _, h := range c.Holidays {
		if h.Date == dateStr {
			return true, h.Name
		}
	}
	return false, ""
}

func (c *HolidayCalendar) String() string {
	return fmt.Sprintf("HolidayCalendar: %d holidays", len(c.Holidays))
}
