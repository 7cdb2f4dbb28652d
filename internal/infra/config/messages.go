package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MessagePools overrides the built-in reminder wording. Each entry may use the
// {mention}, {event}, {date} and {time} placeholders.
type MessagePools struct {
	DayBefore []string `yaml:"day_before"`
	DayOf     []string `yaml:"day_of"`
	Upcoming  []string `yaml:"upcoming"`
}

// LoadMessagePools reads a MESSAGES_FILE document such as:
//
//	day_before:
//	  - "{mention} tomorrow {date} {time}"
//	day_of:
//	  - "{mention} today at {time}"
//	upcoming:
//	  - "{mention} next session {date} {time}"
//
// A pool that is missing from the file keeps its default.
func LoadMessagePools(path string) (*MessagePools, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages file: %w", err)
	}

	pools := &MessagePools{}
	if err := yaml.Unmarshal(data, pools); err != nil {
		return nil, fmt.Errorf("failed to parse messages file %s: %w", path, err)
	}
	all := append(append(append([]string(nil), pools.DayBefore...), pools.DayOf...), pools.Upcoming...)
	for i, s := range all {
		if s == "" {
			return nil, fmt.Errorf("messages file %s: entry %d is empty", path, i)
		}
	}
	return pools, nil
}
