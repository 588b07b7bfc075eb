package gps

import (
	"strconv"
	"strings"
)

// ParseSentence extracts a position from one log sentence. $GPRMC is usable
// when its status field is A (active), $GPGGA when its fix quality is
// non-zero; anything else is tried as a plain "lat,lon" pair, the format
// older collaborator firmware reports.
func ParseSentence(sentence string) (float64, float64, bool) {
	if strings.HasPrefix(sentence, "$GPRMC") {
		parts := strings.Split(sentence, ",")
		if len(parts) > 6 && parts[2] == "A" {
			lat, latOK := nmeaToDecimal(parts[3], parts[4])
			lon, lonOK := nmeaToDecimal(parts[5], parts[6])
			if latOK && lonOK {
				return lat, lon, true
			}
		}
	}

	if strings.HasPrefix(sentence, "$GPGGA") {
		parts := strings.Split(sentence, ",")
		if len(parts) > 6 && parts[6] != "0" && parts[6] != "" {
			lat, latOK := nmeaToDecimal(parts[2], parts[3])
			lon, lonOK := nmeaToDecimal(parts[4], parts[5])
			if latOK && lonOK {
				return lat, lon, true
			}
		}
	}

	if parts := strings.Split(sentence, ","); len(parts) >= 2 {
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if latErr == nil && lonErr == nil {
			return lat, lon, true
		}
	}

	return 0, 0, false
}

// nmeaToDecimal converts ddmm.mmmm (latitude) or dddmm.mmmm (longitude) to
// decimal degrees. Southern and western hemispheres are negative.
func nmeaToDecimal(raw, hemisphere string) (float64, bool) {
	var degLen int
	switch hemisphere {
	case "N", "S":
		degLen = 2
	case "E", "W":
		degLen = 3
	default:
		return 0, false
	}
	if len(raw) <= degLen {
		return 0, false
	}

	degrees, err := strconv.Atoi(raw[:degLen])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.ParseFloat(raw[degLen:], 64)
	if err != nil {
		return 0, false
	}

	value := float64(degrees) + minutes/60
	if hemisphere == "S" || hemisphere == "W" {
		value = -value
	}
	return value, true
}
