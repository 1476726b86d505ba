package analytics

import "github.com/vinodismyname/storepulse/internal/dataset"

// stateCodes maps the state names that appear in Superstore to postal codes.
var stateCodes = map[string]string{
	"Alabama":              "AL",
	"Arizona":              "AZ",
	"Arkansas":             "AR",
	"California":           "CA",
	"Colorado":             "CO",
	"Connecticut":          "CT",
	"Delaware":             "DE",
	"District of Columbia": "DC",
	"Florida":              "FL",
	"Georgia":              "GA",
	"Idaho":                "ID",
	"Illinois":             "IL",
	"Indiana":              "IN",
	"Iowa":                 "IA",
	"Kansas":               "KS",
	"Kentucky":             "KY",
	"Louisiana":            "LA",
	"Maine":                "ME",
	"Maryland":             "MD",
	"Massachusetts":        "MA",
	"Michigan":             "MI",
	"Minnesota":            "MN",
	"Mississippi":          "MS",
	"Missouri":             "MO",
	"Montana":              "MT",
	"Nebraska":             "NE",
	"Nevada":               "NV",
	"New Hampshire":        "NH",
	"New Jersey":           "NJ",
	"New Mexico":           "NM",
	"New York":             "NY",
	"North Carolina":       "NC",
	"North Dakota":         "ND",
	"Ohio":                 "OH",
	"Oklahoma":             "OK",
	"Oregon":               "OR",
	"Pennsylvania":         "PA",
	"Rhode Island":         "RI",
	"South Carolina":       "SC",
	"South Dakota":         "SD",
	"Tennessee":            "TN",
	"Texas":                "TX",
	"Utah":                 "UT",
	"Vermont":              "VT",
	"Virginia":             "VA",
	"Washington":           "WA",
	"West Virginia":        "WV",
	"Wisconsin":            "WI",
	"Wyoming":              "WY",
}

// StateCode returns the postal code for a state name.
func StateCode(name string) (string, bool) {
	c, ok := stateCodes[name]
	return c, ok
}

// StateSales is total sales for one mappable state.
type StateSales struct {
	State string  `json:"state"`
	Code  string  `json:"code"`
	Label string  `json:"label"`
	Sales float64 `json:"sales"`
}

// GeoSales totals sales per state and joins the postal code. States missing from the
// code table are left out of this output only.
func GeoSales(t *dataset.Table) []StateSales {
	groups := sumBy(t, state, sales)
	out := make([]StateSales, 0, len(groups))
	for _, g := range groups {
		code, ok := stateCodes[g.Key]
		if !ok {
			continue
		}
		out = append(out, StateSales{State: g.Key, Code: code, Label: g.Key + " (" + code + ")", Sales: g.Value})
	}
	return out
}
