package assembler

// caseShillerCodes maps every catalogued Case-Shiller index to its FRED code.
var caseShillerCodes = map[string]string{
	"City20":       "SPCS20RSA",
	"Chicago":      "CHXRSA",
	"SanFrancisco": "SFXRSA",
	"LosAngeles":   "LXXRSA",
	"SanDiego":     "SDXRSA",
	"NewYork":      "NYXRSA",
	"Portland":     "POXRSA",
	"Seattle":      "SEXRSA",
	"Atlanta":      "ATXRSA",
	"Boston":       "BOXRSA",
	"Charlotte":    "CRXRSA",
	"Cleveland":    "CEXRSA",
	"Dallas":       "DAXRSA",
	"Denver":       "DNXRSA",
	"Detroit":      "DEXRSA",
	"LasVegas":     "LVXRSA",
	"Miami":        "MIXRSA",
	"Minneapolis":  "MNXRSA",
	"Phoenix":      "PHXRSA",
	"Tampa":        "TPXRSA",
	"WashingtonDC": "WDXRSA",
	"City10":       "SPCS10RSA",
	"National":     "CSUSHPISA",
}

// CaseShillerCode returns the FRED code of a catalogued city index.
func CaseShillerCode(city string) (string, bool) {
	code, ok := caseShillerCodes[city]
	return code, ok
}

// Instrument is a futures contract plotted in the futures panels.
type Instrument struct {
	Name   string
	Symbol string
}

// Futures lists the futures instruments in display order.
var Futures = []Instrument{
	{"USDIndex", "DX=F"},
	{"EURIndex", "6E=F"},
	{"JPYIndex", "6J=F"},
	{"5YrYield", "^FVX"},
	{"10YrYield", "^TNX"},
	{"Gold", "GC=F"},
	{"Silver", "SI=F"},
	{"Copper", "HG=F"},
	{"CrudeOil", "CL=F"},
	{"BrentCrudeOil", "BZ=F"},
	{"Gasoline", "RB=F"},
	{"NaturalGas", "NG=F"},
	{"Wheat", "ZW=F"},
	{"Corn", "ZC=F"},
	{"LiveCattle", "LE=F"},
	{"Cotton", "CT=F"},
	{"Sugar", "SB=F"},
	{"Coffee", "KC=F"},
	{"Cocoa", "CC=F"},
	{"OrangeJuice", "OJ=F"},
}
