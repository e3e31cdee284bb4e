package game

import "fmt"

// ParsePeriod accepts the names returned by Period.String
func ParsePeriod(s string) (Period, error) {
	for p, name := range periodNames {
		if name == s {
			return Period(p), nil
		}
	}
	return 0, fmt.Errorf("unknown period %q", s)
}

func (p Period) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid period %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(text []byte) error {
	v, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (c Color) MarshalText() ([]byte, error) {
	if c > White {
		return nil, fmt.Errorf("invalid color %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	switch string(text) {
	case "black":
		*c = Black
	case "white":
		*c = White
	default:
		return fmt.Errorf("unknown color %q", text)
	}
	return nil
}

func (k TimeoutKind) MarshalText() ([]byte, error) {
	if k > TimeoutPenaltyShot {
		return nil, fmt.Errorf("invalid timeout kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *TimeoutKind) UnmarshalText(text []byte) error {
	for v := TimeoutNone; v <= TimeoutPenaltyShot; v++ {
		if v.String() == string(text) {
			*k = v
			return nil
		}
	}
	return fmt.Errorf("unknown timeout kind %q", text)
}
