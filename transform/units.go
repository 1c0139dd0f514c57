package transform

import (
	"strings"

	"github.com/untillpro/goutils/logger"
)

// Units names understood by ScaleFactor.
const (
	Meters      = "m"
	Centimeters = "cm"
	Millimeters = "mm"
	Kilometers  = "km"
	Inches      = "in"
	Feet        = "ft"
	Yards       = "yd"
	Miles       = "mi"
)

var unitScale = map[string]float64{
	Meters:      1.0,
	Centimeters: 0.01,
	Millimeters: 0.001,
	Kilometers:  1000,
	Inches:      0.0254,
	Feet:        0.3048,
	Yards:       0.9144,
	Miles:       1609.34,
}

var unitAliases = map[string]string{
	"meter": Meters, "meters": Meters, "metre": Meters, "metres": Meters,
	"centimeter": Centimeters, "centimeters": Centimeters, "centimetre": Centimeters,
	"millimeter": Millimeters, "millimeters": Millimeters, "millimetre": Millimeters,
	"kilometer": Kilometers, "kilometers": Kilometers, "kilometre": Kilometers,
	"inch": Inches, "inches": Inches,
	"foot": Feet, "feet": Feet, "us-ft": Feet,
	"yard": Yards, "yards": Yards,
	"mile": Miles, "miles": Miles,
}

// NormalizeUnits maps a unit name or alias to its short form. Unknown or
// empty names become meters and a warning is logged.
func NormalizeUnits(u string) string {
	key := strings.ToLower(strings.TrimSpace(u))
	if _, ok := unitScale[key]; ok {
		return key
	}
	if short, ok := unitAliases[key]; ok {
		return short
	}
	if key != "" {
		logger.Warning("unrecognized units", u, "- using meters")
	}
	return Meters
}

// ScaleFactor returns the multiplier converting lengths in fromUnits into
// toUnits.
func ScaleFactor(fromUnits, toUnits string) float64 {
	from := unitScale[NormalizeUnits(fromUnits)]
	to := unitScale[NormalizeUnits(toUnits)]
	return from / to
}
