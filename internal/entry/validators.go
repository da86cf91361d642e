package entry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Boolean coerces common truthy/falsy representations to a bool
func Boolean(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on", "enable":
			return true, nil
		case "0", "false", "no", "off", "disable":
			return false, nil
		}
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	}
	return nil, fmt.Errorf("invalid boolean value %v", value)
}

// String coerces scalar values to their string form
func String(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool, int, int64, float64:
		return fmt.Sprintf("%v", v), nil
	}
	return nil, fmt.Errorf("invalid string value %v", value)
}

func coerceInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%v is not an integer", value)
}

// IntBetween returns a validator for an integer in [min, max]
func IntBetween(min, max int) ValidatorFunc {
	return func(value interface{}) (interface{}, error) {
		n, err := coerceInt(value)
		if err != nil {
			return nil, err
		}
		if n < min || n > max {
			return nil, fmt.Errorf("%d is not between %d and %d", n, min, max)
		}
		return n, nil
	}
}

// PositiveInt coerces an integer and requires it to be zero or greater
func PositiveInt(value interface{}) (interface{}, error) {
	n, err := coerceInt(value)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%d is negative", n)
	}
	return n, nil
}

// TimePeriod accepts a time.Duration, a number of seconds, or a colon
// separated "H:MM" / "H:MM:SS" string and yields a time.Duration
func TimePeriod(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		return parseTimePeriod(v)
	}
	return nil, fmt.Errorf("%v should be 'HH:MM', 'HH:MM:SS' or a number of seconds", value)
}

func parseTimePeriod(s string) (time.Duration, error) {
	trimmed := strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(trimmed, "-") {
		negative = true
		trimmed = trimmed[1:]
	} else if strings.HasPrefix(trimmed, "+") {
		trimmed = trimmed[1:]
	}

	parts := strings.Split(trimmed, ":")

	var hours, minutes int
	var seconds float64
	var err error

	switch len(parts) {
	case 1:
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, fmt.Errorf("%q should be 'HH:MM', 'HH:MM:SS' or a number of seconds", s)
		}
		seconds = n
	case 2:
		if hours, err = strconv.Atoi(parts[0]); err != nil {
			return 0, fmt.Errorf("invalid hours in %q", s)
		}
		if minutes, err = strconv.Atoi(parts[1]); err != nil {
			return 0, fmt.Errorf("invalid minutes in %q", s)
		}
	case 3:
		if hours, err = strconv.Atoi(parts[0]); err != nil {
			return 0, fmt.Errorf("invalid hours in %q", s)
		}
		if minutes, err = strconv.Atoi(parts[1]); err != nil {
			return 0, fmt.Errorf("invalid minutes in %q", s)
		}
		if seconds, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return 0, fmt.Errorf("invalid seconds in %q", s)
		}
	default:
		return 0, fmt.Errorf("%q should be 'HH:MM', 'HH:MM:SS' or a number of seconds", s)
	}

	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	if negative {
		d = -d
	}
	return d, nil
}

// DurationSeconds flattens a time.Duration to a whole number of seconds so
// the resolved value can be serialized
func DurationSeconds(value interface{}) interface{} {
	if d, ok := value.(time.Duration); ok {
		return int(d / time.Second)
	}
	return value
}
