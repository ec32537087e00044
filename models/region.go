package models

import "regexp"

// Region is the closed set of supported phone regions. Free-text country
// codes are not accepted anywhere; every phone number is validated against
// its region's pattern.
type Region string

const (
	RegionIN Region = "IN"
	RegionUS Region = "US"
	RegionGB Region = "GB"
)

// RegionRule binds a region to its dial code, validation pattern and a
// human example used in error messages.
type RegionRule struct {
	DialCode string
	Pattern  *regexp.Regexp
	Name     string
	Example  string
}

var regionRules = map[Region]RegionRule{
	RegionIN: {
		DialCode: "+91",
		Pattern:  regexp.MustCompile(`^\+91[6-9]\d{9}$`),
		Name:     "Indian",
		Example:  "+917039940998",
	},
	RegionUS: {
		DialCode: "+1",
		Pattern:  regexp.MustCompile(`^\+1[2-9]\d{9}$`),
		Name:     "US",
		Example:  "+12125551234",
	},
	RegionGB: {
		DialCode: "+44",
		Pattern:  regexp.MustCompile(`^\+447\d{9}$`),
		Name:     "UK",
		Example:  "+447700900123",
	},
}

// ParseRegion maps a country-code string to a Region.
func ParseRegion(code string) (Region, bool) {
	switch Region(code) {
	case RegionIN, RegionUS, RegionGB:
		return Region(code), true
	}
	return "", false
}

// Rule returns the validation rule for the region. The second return is
// false for regions outside the closed set.
func (r Region) Rule() (RegionRule, bool) {
	rule, ok := regionRules[r]
	return rule, ok
}

// ValidPhone reports whether phone matches the region's E.164 pattern.
func (r Region) ValidPhone(phone string) bool {
	rule, ok := regionRules[r]
	return ok && rule.Pattern.MatchString(phone)
}
