package transform

import "strings"

// CRS describes a coordinate reference system the way layers carry it: an
// authority id when one is known, otherwise the WKT definition.
type CRS struct {
	Name   string `yaml:"name"`
	AuthID string `yaml:"authid"`
	WKT    string `yaml:"wkt"`
	Units  string `yaml:"units"`
}

var (
	WGS84        = CRS{Name: "WGS 84", AuthID: "EPSG:4326", Units: "degrees"}
	WebMercator  = CRS{Name: "WGS 84 / Pseudo-Mercator", AuthID: "EPSG:3857", Units: Meters}
	mercatorAuth = map[string]bool{"EPSG:3857": true, "EPSG:900913": true, "EPSG:3785": true}
)

// IsZero reports whether c carries no definition at all.
func (c CRS) IsZero() bool {
	return c.AuthID == "" && c.WKT == ""
}

// Same reports whether a and b describe the same CRS. An undefined CRS
// matches anything so that undeclared layers are never reprojected.
func (c CRS) Same(other CRS) bool {
	if c.IsZero() || other.IsZero() {
		return true
	}
	if c.AuthID != "" && other.AuthID != "" {
		return strings.EqualFold(c.AuthID, other.AuthID)
	}
	return strings.TrimSpace(c.WKT) == strings.TrimSpace(other.WKT)
}

// IsGeographic reports whether coordinates are longitude/latitude degrees.
func (c CRS) IsGeographic() bool {
	return strings.EqualFold(c.AuthID, WGS84.AuthID) || strings.HasPrefix(strings.ToLower(c.Units), "deg")
}

func (c CRS) isMercator() bool {
	return mercatorAuth[strings.ToUpper(c.AuthID)]
}

func (c CRS) String() string {
	if c.AuthID != "" {
		return c.AuthID
	}
	if c.Name != "" {
		return c.Name
	}
	return "undefined"
}
