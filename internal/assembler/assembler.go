package assembler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"BigPictureWatch/internal/calculator"
	"BigPictureWatch/internal/collector"
	"BigPictureWatch/internal/model"
)

// Config is the immutable configuration of an Assembler.
type Config struct {
	HistoryYears      float64
	FuturesLongYears  float64
	FuturesShortYears float64
	// Cities selects the Case-Shiller indices to fetch; every entry must
	// be catalogued.
	Cities     []string
	NormFrom   time.Time
	NormTo     time.Time
	ShillerURL string
}

// SnapshotStore is the daily cache the assembler reads through.
type SnapshotStore interface {
	TryLoad() (*model.Snapshot, bool, error)
	Store(*model.Snapshot) error
}

// Observer receives per-step measurements. metrics.Recorder implements it.
type Observer interface {
	FetchDone(source, id string, d time.Duration, err error)
	CombineDone(op string, err error)
}

type nopObserver struct{}

func (nopObserver) FetchDone(string, string, time.Duration, error) {}
func (nopObserver) CombineDone(string, error)                      {}

// Outcome describes how Assemble produced its dataset.
type Outcome struct {
	CacheHit  bool
	StartedAt time.Time
	Duration  time.Duration
}

// Assembler runs the fixed fetch-and-derive sequence that produces the
// named collection, and caches the result for the rest of the day.
type Assembler struct {
	cfg    Config
	macro  collector.MacroSource
	market collector.MarketSource
	table  collector.TableSource
	store  SnapshotStore
	now    func() time.Time
	log    zerolog.Logger
	obs    Observer
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock overrides the time source used for windows and timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithLogger sets the progress logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Assembler) { a.log = l }
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(a *Assembler) { a.obs = o }
}

// New validates cfg and creates an Assembler.
func New(cfg Config, macro collector.MacroSource, market collector.MarketSource, table collector.TableSource, store SnapshotStore, opts ...Option) (*Assembler, error) {
	for _, city := range cfg.Cities {
		if _, ok := CaseShillerCode(city); !ok {
			return nil, fmt.Errorf("unknown Case-Shiller city %q", city)
		}
	}
	if !cfg.NormFrom.Before(cfg.NormTo) {
		return nil, fmt.Errorf("normalization window %s..%s is empty",
			cfg.NormFrom.Format(time.DateOnly), cfg.NormTo.Format(time.DateOnly))
	}
	if cfg.HistoryYears <= 0 || cfg.FuturesLongYears <= 0 || cfg.FuturesShortYears <= 0 {
		return nil, errors.New("history windows must be positive")
	}
	a := &Assembler{
		cfg:    cfg,
		macro:  macro,
		market: market,
		table:  table,
		store:  store,
		now:    time.Now,
		log:    zerolog.Nop(),
		obs:    nopObserver{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Windows computes the plotting ranges relative to today.
func (a *Assembler) Windows() model.Windows {
	today := model.Day(a.now())
	return model.Windows{
		PlotStart:         yearsBefore(today, a.cfg.HistoryYears),
		PlotEnd:           today,
		FuturesLongStart:  yearsBefore(today, a.cfg.FuturesLongYears),
		FuturesShortStart: yearsBefore(today, a.cfg.FuturesShortYears),
	}
}

func yearsBefore(t time.Time, years float64) time.Time {
	return t.AddDate(0, 0, -int(math.Round(years*365.25)))
}

// Assemble returns today's dataset from the cache, or builds and caches it.
// A failed build never touches the cache.
func (a *Assembler) Assemble(ctx context.Context) (*model.Dataset, Outcome, error) {
	out := Outcome{StartedAt: a.now()}
	windows := a.Windows()

	snap, ok, err := a.store.TryLoad()
	if err != nil {
		a.log.Warn().Err(err).Msg("snapshot unavailable, rebuilding")
	}
	if ok {
		out.CacheHit = true
		out.Duration = a.now().Sub(out.StartedAt)
		a.log.Info().Time("created_at", snap.CreatedAt).Int("series", snap.Collection.Count()).Msg("using cached dataset")
		return &model.Dataset{Collection: &snap.Collection, Windows: windows}, out, nil
	}

	a.log.Info().
		Str("from", windows.PlotStart.Format(time.DateOnly)).
		Str("to", windows.PlotEnd.Format(time.DateOnly)).
		Msg("downloading data")
	coll, err := a.Build(ctx)
	if err != nil {
		out.Duration = a.now().Sub(out.StartedAt)
		return nil, out, err
	}
	coll.Each(func(_ string, s *model.Series) { calculator.NormalizeTimes(s) })

	if err := a.store.Store(&model.Snapshot{CreatedAt: a.now(), Collection: *coll}); err != nil {
		out.Duration = a.now().Sub(out.StartedAt)
		return nil, out, fmt.Errorf("store snapshot: %w", err)
	}
	out.Duration = a.now().Sub(out.StartedAt)
	a.log.Info().Int("series", coll.Count()).Dur("took", out.Duration).Msg("dataset assembled")
	return &model.Dataset{Collection: coll, Windows: windows}, out, nil
}

// Build fetches and derives every series in order. The first failure
// aborts the run; later steps are not attempted.
func (a *Assembler) Build(ctx context.Context) (*model.Collection, error) {
	w := a.Windows()
	b := &build{a: a, ctx: ctx, start: w.PlotStart, end: w.PlotEnd}
	c := &model.Collection{}

	c.SP500 = b.market("SP500", "^GSPC")
	c.Gold = b.market("gold", "GC=F")
	c.SP500Gold = b.combine("SP500_gold", c.SP500, calculator.Divide, c.Gold)

	c.ShillerPE10 = b.table("ShillerPE10", a.cfg.ShillerURL)

	c.Equity = b.macro("equity", "NCBEILQ027S")
	c.NetWorth = b.macro("networth", "TNWMVBSNNCB")
	c.TobinQ = b.combine("TobinQ", c.Equity, calculator.Divide, c.NetWorth)

	c.CPI = b.macro("cpi", "CPIAUCSL")
	c.CPIFood = b.macro("cpi_food", "CPIUFDSL")
	c.CPIHousing = b.macro("cpi_housing", "CPIHOSSL")
	c.CPIMedical = b.macro("cpi_medical", "CPIMEDSL")
	c.CPIEducation = b.macro("cpi_education", "CUSR0000SAE1")
	c.GDPDeflator = b.macro("gdpdef", "GDPDEF")
	c.SP500GDPDeflator = b.combine("SP500_gdpdef", c.SP500, calculator.Divide, c.GDPDeflator)

	// MB is in millions, M2 in billions.
	c.MB = b.macro("MB", "BOGMBASE")
	c.M2 = b.macro("M2", "M2SL")
	c.SP500M2 = b.combine("SP500_M2", c.SP500, calculator.Divide, c.M2)

	c.Treasury1 = b.macro("treasury_yield1", "DGS1")
	c.Treasury2 = b.macro("treasury_yield2", "DGS2")
	c.Treasury5 = b.macro("treasury_yield5", "DGS5")
	c.Treasury10 = b.macro("treasury_yield10", "DGS10")
	c.Treasury20 = b.macro("treasury_yield20", "DGS20")
	c.TreasurySpread = b.combine("treasury_yield_spread", c.Treasury1, calculator.Divide, c.Treasury20)

	c.GDP = b.macro("GDP", "GDP")
	c.RealGDP = b.macro("RealGDP", "GDPC1")
	c.SP500GDP = b.combine("SP500_gdp", c.SP500, calculator.Divide, c.GDP)
	c.GDPDeflated = b.scale(b.combine("GDP_deflated", c.GDP, calculator.Divide, c.GDPDeflator), 100)
	c.SP500DeflatedGDP = b.combine("SP500_deflgdp", c.SP500, calculator.Divide, c.GDPDeflated)

	c.MBGDP = b.combine("MB_GDP", c.MB, calculator.Divide, c.GDP)
	c.M2GDP = b.combine("M2_GDP", c.M2, calculator.Divide, c.GDP)
	mbgdpNorm := b.normalize(c.MBGDP)
	c.TreasurySpreadAdj = b.combine("treasury_yield_spread_adj", c.TreasurySpread, calculator.Multiply, mbgdpNorm)

	// TEDRATE stopped with LIBOR in 2022; SOFR minus the 3-month bill replaces it.
	c.TEDSpread = b.macro("tedspread", "TEDRATE")
	sofr := b.macro("SOFR", "SOFR")
	tbill := b.macro("t3m", "DGS3MO")
	c.SOFRTBill = b.combine("SOFR_t3m", sofr, calculator.Subtract, tbill)

	c.VIX = b.market("vix", "^VIX")

	c.STLFSI = b.macro("stl_fsi", "STLFSI4")
	c.KCFSI = b.macro("kc_fsi", "KCFSI")
	c.CFSI = b.macro("c_fsi", "CFSI")
	c.ANFCI = b.macro("anfci", "ANFCI")

	c.Population = b.macro("population", "POP")
	c.WorkingAgePopulation = b.scale(b.macro("wa_population", "LFWA64TTUSM647N"), 1.0/1000)
	c.RatioWhite = b.combine("ratio_white", b.macro("white", "LNU00000003"), calculator.Divide, c.Population)
	c.RatioBlack = b.combine("ratio_black", b.macro("black", "LNU00000006"), calculator.Divide, c.Population)
	c.RatioHispanic = b.combine("ratio_hispanic", b.macro("hispanic", "LNU00000009"), calculator.Divide, c.Population)
	c.RatioAsian = b.combine("ratio_asian", b.macro("asian", "LNU00032183"), calculator.Divide, c.Population)
	// GDP is in billions and population in thousands; per capita is in thousands of dollars.
	c.GDPPerCapita = b.scale(b.combine("gdp_per_capita", c.GDP, calculator.Divide, c.Population), 1e6/1e3)
	c.RealGDPPerCapita = b.scale(b.combine("realgdp_per_capita", c.RealGDP, calculator.Divide, c.Population), 1e6/1e3)

	c.EmploymentRatio = b.macro("epr", "EMRATIO")
	c.Unemployment = b.macro("uer", "UNRATE")
	c.Participation = b.macro("lfpr", "CIVPART")

	c.CaseShiller = make(map[string]model.Series, len(a.cfg.Cities))
	for _, city := range a.cfg.Cities {
		code, _ := CaseShillerCode(city)
		c.CaseShiller[city] = b.macro("caseshiller/"+city, code)
	}

	c.Futures = make(map[string]model.Series, len(Futures))
	for _, f := range Futures {
		c.Futures[f.Name] = b.market("futures/"+f.Name, f.Symbol)
		c.FuturesOrder = append(c.FuturesOrder, f.Name)
	}

	if b.err != nil {
		return nil, b.err
	}
	return c, nil
}

// build carries the first error of a Build run. Once set, every further
// step is skipped and returns an empty series.
type build struct {
	a          *Assembler
	ctx        context.Context
	start, end time.Time
	err        error
}

func (b *build) macro(key, code string) model.Series {
	return b.fetch(key, b.a.macro.Name(), code, func() (model.Series, error) {
		return b.a.macro.FetchSeries(b.ctx, code, b.start, b.end)
	})
}

func (b *build) market(key, symbol string) model.Series {
	return b.fetch(key, b.a.market.Name(), symbol, func() (model.Series, error) {
		return b.a.market.FetchCloses(b.ctx, symbol, b.start, b.end)
	})
}

func (b *build) table(key, url string) model.Series {
	return b.fetch(key, b.a.table.Name(), url, func() (model.Series, error) {
		return b.a.table.FetchTable(b.ctx, url)
	})
}

func (b *build) fetch(key, source, id string, fn func() (model.Series, error)) model.Series {
	if b.err != nil {
		return model.Series{}
	}
	if err := b.ctx.Err(); err != nil {
		b.err = fmt.Errorf("%s: %w", key, err)
		return model.Series{}
	}
	began := time.Now()
	s, err := fn()
	b.a.obs.FetchDone(source, id, time.Since(began), err)
	if err != nil {
		b.err = fmt.Errorf("%s: %w", key, err)
		return model.Series{}
	}
	s.Name = key
	b.logSeries(source, id, s)
	return s
}

func (b *build) combine(key string, x model.Series, op calculator.Operator, y model.Series) model.Series {
	if b.err != nil {
		return model.Series{}
	}
	s, err := calculator.Combine(x, op, y)
	b.a.obs.CombineDone(string(op), err)
	if err != nil {
		b.err = fmt.Errorf("%s: %w", key, err)
		return model.Series{}
	}
	s.Name = key
	b.a.log.Debug().Str("series", key).Str("op", string(op)).Int("points", s.Len()).Msg("derived series")
	return s
}

func (b *build) scale(s model.Series, factor float64) model.Series {
	if b.err != nil {
		return model.Series{}
	}
	return calculator.Scale(s, factor)
}

func (b *build) normalize(s model.Series) model.Series {
	if b.err != nil {
		return model.Series{}
	}
	out, err := calculator.NormalizeToWindow(s, b.a.cfg.NormFrom, b.a.cfg.NormTo)
	if err != nil {
		b.err = fmt.Errorf("%s normalization: %w", s.Name, err)
		return model.Series{}
	}
	return out
}

func (b *build) logSeries(source, id string, s model.Series) {
	ev := b.a.log.Debug().Str("series", s.Name).Str("source", source).Str("id", id).Int("points", s.Len())
	if first, ok := s.First(); ok {
		ev = ev.Str("first", first.Time.Format(time.DateOnly))
	}
	if last, ok := s.Last(); ok {
		ev = ev.Str("last", last.Time.Format(time.DateOnly)).Float64("value", last.Value)
	}
	ev.Msg("fetched series")
}
