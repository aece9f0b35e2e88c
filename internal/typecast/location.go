package typecast

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseLocation resolves a timezone setting. It accepts "" or "Z" (UTC),
// "local", fixed offsets such as "+02:00" or "-0530", and IANA names.
func ParseLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	switch strings.ToLower(name) {
	case "", "z", "utc", "+00:00":
		return time.UTC, nil
	case "local":
		return time.Local, nil
	}

	if name[0] == '+' || name[0] == '-' {
		return parseOffset(name)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

func parseOffset(name string) (*time.Location, error) {
	sign := 1
	if name[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(name[1:], ":", "")
	if len(digits) != 4 {
		return nil, fmt.Errorf("invalid timezone offset %q", name)
	}
	hours, err := strconv.Atoi(digits[:2])
	if err != nil {
		return nil, fmt.Errorf("invalid timezone offset %q: %w", name, err)
	}
	minutes, err := strconv.Atoi(digits[2:])
	if err != nil {
		return nil, fmt.Errorf("invalid timezone offset %q: %w", name, err)
	}
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("invalid timezone offset %q", name)
	}
	return time.FixedZone(name, sign*(hours*3600+minutes*60)), nil
}
