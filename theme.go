package codey

import (
	"fmt"
	"strconv"
	"strings"
)

// Theme is an accent palette. The three shades are HSL triples written as
// "H S% L%" (e.g. "272 91% 75%"), lightest first. ActiveText is the text
// color drawn on top of the accent: "white" or "black".
type Theme struct {
	Name       string `json:"name"`
	C400       string `json:"c400"`
	C500       string `json:"c500"`
	C600       string `json:"c600"`
	ActiveText string `json:"activeText"`
}

// Validate checks that every shade parses and ActiveText is known.
func (t Theme) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("theme name is empty: %w", ErrValidation)
	}
	for _, shade := range []string{t.C400, t.C500, t.C600} {
		if _, _, _, err := ParseHSL(shade); err != nil {
			return err
		}
	}
	switch t.ActiveText {
	case "white", "black", "text-white", "text-black":
	default:
		return fmt.Errorf("activeText must be white or black, got %q: %w", t.ActiveText, ErrValidation)
	}
	return nil
}

// ParseHSL parses "H S% L%" into hue in degrees and saturation and
// lightness in [0, 1]. Commas between components are tolerated.
func ParseHSL(s string) (h, sat, l float64, err error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields) != 3 {
		return 0, 0, 0, fmt.Errorf("hsl %q: want 3 components: %w", s, ErrValidation)
	}
	h, err = strconv.ParseFloat(strings.TrimSuffix(fields[0], "deg"), 64)
	if err != nil || h < 0 || h > 360 {
		return 0, 0, 0, fmt.Errorf("hsl %q: bad hue: %w", s, ErrValidation)
	}
	pct := func(f string) (float64, error) {
		v, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
		if err != nil || v < 0 || v > 100 {
			return 0, fmt.Errorf("hsl %q: bad percentage %q: %w", s, f, ErrValidation)
		}
		return v / 100, nil
	}
	if sat, err = pct(fields[1]); err != nil {
		return 0, 0, 0, err
	}
	if l, err = pct(fields[2]); err != nil {
		return 0, 0, 0, err
	}
	return h, sat, l, nil
}
