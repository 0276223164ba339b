package model

import "time"

// Collection is the full set of series produced by one assembly run.
type Collection struct {
	// Equity and valuation
	SP500       Series
	Gold        Series
	SP500Gold   Series
	ShillerPE10 Series
	Equity      Series
	NetWorth    Series
	TobinQ      Series
	VIX         Series

	// Inflation
	CPI              Series
	CPIFood          Series
	CPIHousing       Series
	CPIMedical       Series
	CPIEducation     Series
	GDPDeflator      Series
	SP500GDPDeflator Series

	// Money supply and output
	MB               Series
	M2               Series
	SP500M2          Series
	GDP              Series
	RealGDP          Series
	SP500GDP         Series
	GDPDeflated      Series
	SP500DeflatedGDP Series
	MBGDP            Series
	M2GDP            Series

	// Rates
	Treasury1         Series
	Treasury2         Series
	Treasury5         Series
	Treasury10        Series
	Treasury20        Series
	TreasurySpread    Series
	TreasurySpreadAdj Series
	TEDSpread         Series
	SOFRTBill         Series

	// Financial stress
	STLFSI Series
	KCFSI  Series
	CFSI   Series
	ANFCI  Series

	// Population
	Population           Series
	WorkingAgePopulation Series
	RatioWhite           Series
	RatioBlack           Series
	RatioHispanic        Series
	RatioAsian           Series
	GDPPerCapita         Series
	RealGDPPerCapita     Series

	// Labor market
	EmploymentRatio Series
	Unemployment    Series
	Participation   Series

	// CaseShiller maps city name to its home price index.
	CaseShiller  map[string]Series
	// Futures maps instrument name to its daily closes.
	Futures      map[string]Series
	// FuturesOrder lists Futures keys in display order.
	FuturesOrder []string
}

// NamedSeries pairs a collection key with its series.
type NamedSeries struct {
	Key    string
	Series *Series
}

// TopLevel returns pointers to every top-level series in display order.
// Keys match the identifiers used by the chart renderer.
func (c *Collection) TopLevel() []NamedSeries {
	return []NamedSeries{
		{"SP500", &c.SP500},
		{"gold", &c.Gold},
		{"SP500_gold", &c.SP500Gold},
		{"ShillerPE10", &c.ShillerPE10},
		{"equity", &c.Equity},
		{"networth", &c.NetWorth},
		{"TobinQ", &c.TobinQ},
		{"cpi", &c.CPI},
		{"cpi_food", &c.CPIFood},
		{"cpi_housing", &c.CPIHousing},
		{"cpi_medical", &c.CPIMedical},
		{"cpi_education", &c.CPIEducation},
		{"gdpdef", &c.GDPDeflator},
		{"SP500_gdpdef", &c.SP500GDPDeflator},
		{"MB", &c.MB},
		{"M2", &c.M2},
		{"SP500_M2", &c.SP500M2},
		{"treasury_yield1", &c.Treasury1},
		{"treasury_yield2", &c.Treasury2},
		{"treasury_yield5", &c.Treasury5},
		{"treasury_yield10", &c.Treasury10},
		{"treasury_yield20", &c.Treasury20},
		{"treasury_yield_spread", &c.TreasurySpread},
		{"treasury_yield_spread_adj", &c.TreasurySpreadAdj},
		{"GDP", &c.GDP},
		{"RealGDP", &c.RealGDP},
		{"SP500_gdp", &c.SP500GDP},
		{"GDP_deflated", &c.GDPDeflated},
		{"SP500_deflgdp", &c.SP500DeflatedGDP},
		{"MB_GDP", &c.MBGDP},
		{"M2_GDP", &c.M2GDP},
		{"tedspread", &c.TEDSpread},
		{"SOFR_t3m", &c.SOFRTBill},
		{"vix", &c.VIX},
		{"stl_fsi", &c.STLFSI},
		{"kc_fsi", &c.KCFSI},
		{"c_fsi", &c.CFSI},
		{"anfci", &c.ANFCI},
		{"population", &c.Population},
		{"wa_population", &c.WorkingAgePopulation},
		{"ratio_white", &c.RatioWhite},
		{"ratio_black", &c.RatioBlack},
		{"ratio_hispanic", &c.RatioHispanic},
		{"ratio_asian", &c.RatioAsian},
		{"gdp_per_capita", &c.GDPPerCapita},
		{"realgdp_per_capita", &c.RealGDPPerCapita},
		{"epr", &c.EmploymentRatio},
		{"uer", &c.Unemployment},
		{"lfpr", &c.Participation},
	}
}

// Each calls fn for every series in the collection, nested ones included,
// and stores back whatever fn leaves in s. Nested keys are reported as
// "caseshiller/<city>" and "futures/<name>". Readers should use Range.
func (c *Collection) Each(fn func(key string, s *Series)) {
	for _, ns := range c.TopLevel() {
		fn(ns.Key, ns.Series)
	}
	for _, city := range sortedKeys(c.CaseShiller) {
		s := c.CaseShiller[city]
		fn("caseshiller/"+city, &s)
		c.CaseShiller[city] = s
	}
	for _, name := range c.FuturesOrder {
		s, ok := c.Futures[name]
		if !ok {
			continue
		}
		fn("futures/"+name, &s)
		c.Futures[name] = s
	}
}

// Range calls fn with a copy of every series, in the same order as Each.
// It never writes to c, so concurrent readers may share a collection.
func (c *Collection) Range(fn func(key string, s Series)) {
	for _, ns := range c.TopLevel() {
		fn(ns.Key, *ns.Series)
	}
	for _, city := range sortedKeys(c.CaseShiller) {
		fn("caseshiller/"+city, c.CaseShiller[city])
	}
	for _, name := range c.FuturesOrder {
		if s, ok := c.Futures[name]; ok {
			fn("futures/"+name, s)
		}
	}
}

// Count returns the number of series in the collection, nested ones included.
func (c *Collection) Count() int {
	n := 0
	c.Range(func(string, Series) { n++ })
	return n
}

// Snapshot is the persisted form of a Collection.
type Snapshot struct {
	CreatedAt  time.Time
	Collection Collection
}

// Windows carries the plotting ranges the chart renderer needs.
type Windows struct {
	PlotStart         time.Time
	PlotEnd           time.Time
	FuturesLongStart  time.Time
	FuturesShortStart time.Time
}

// Dataset is what the assembler hands to the renderer.
type Dataset struct {
	Collection *Collection
	Windows    Windows
}
