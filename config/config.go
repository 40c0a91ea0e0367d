package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Family selects the strategy profile, which fixes warm‑up and window sizes.
type Family string

const (
	Scalp Family = "scalp"
	Swing Family = "swing"
)

// WarmupOffset is the first bar index a backtest may evaluate.
func (f Family) WarmupOffset() int {
	if f == Swing {
		return 200
	}
	return 50
}

// WindowSize is the number of trailing bars fed to the indicator engine.
func (f Family) WindowSize() int {
	if f == Swing {
		return 48
	}
	return 45
}

// LongWindowSize is the size of the long-context window used for the
// SMA‑50/SMA‑200 columns; zero means the family runs without it.
func (f Family) LongWindowSize() int {
	if f == Swing {
		return 200
	}
	return 0
}

// Periods groups every indicator lookback.
type Periods struct {
	RSI             int     `yaml:"rsi" default:"14" validate:"gte=2"`
	CCI             int     `yaml:"cci" default:"20" validate:"gte=2"`
	MFI             int     `yaml:"mfi" default:"14" validate:"gte=2"`
	ATR             int     `yaml:"atr" default:"14" validate:"gte=1"`
	ADX             int     `yaml:"adx" default:"14" validate:"gte=2"`
	EMAFast         int     `yaml:"ema_fast" default:"9" validate:"gte=1"`
	EMASlow         int     `yaml:"ema_slow" default:"21" validate:"gte=2"`
	Bollinger       int     `yaml:"bollinger" default:"20" validate:"gte=2"`
	BollingerStdDev float64 `yaml:"bollinger_stddev" default:"2" validate:"gt=0"`
	StochK          int     `yaml:"stoch_k" default:"14" validate:"gte=2"`
	StochD          int     `yaml:"stoch_d" default:"3" validate:"gte=1"`
	StochRSI        int     `yaml:"stoch_rsi" default:"14" validate:"gte=2"`
	StochRSIK       int     `yaml:"stoch_rsi_k" default:"3" validate:"gte=1"`
	StochRSID       int     `yaml:"stoch_rsi_d" default:"3" validate:"gte=1"`
	MACDFast        int     `yaml:"macd_fast" default:"12" validate:"gte=1"`
	MACDSlow        int     `yaml:"macd_slow" default:"26" validate:"gte=2"`
	MACDSignal      int     `yaml:"macd_signal" default:"9" validate:"gte=1"`
	PSARStep        float64 `yaml:"psar_step" default:"0.02" validate:"gt=0"`
	PSARMax         float64 `yaml:"psar_max" default:"0.2" validate:"gt=0"`
	SMAShort        int     `yaml:"sma_short" default:"50" validate:"gte=2"`
	SMALong         int     `yaml:"sma_long" default:"200" validate:"gte=2"`
}

// Thresholds groups the buy/sell trigger levels.
type Thresholds struct {
	RSIBuy       float64 `yaml:"rsi_buy" default:"30" validate:"gte=0,lte=100"`
	RSISell      float64 `yaml:"rsi_sell" default:"70" validate:"gte=0,lte=100"`
	CCIBuy       float64 `yaml:"cci_buy" default:"-100"`
	CCISell      float64 `yaml:"cci_sell" default:"100"`
	MFIBuy       float64 `yaml:"mfi_buy" default:"20" validate:"gte=0,lte=100"`
	MFISell      float64 `yaml:"mfi_sell" default:"80" validate:"gte=0,lte=100"`
	StochBuy     float64 `yaml:"stoch_buy" default:"20" validate:"gte=0,lte=100"`
	StochSell    float64 `yaml:"stoch_sell" default:"80" validate:"gte=0,lte=100"`
	StochRSIBuy  float64 `yaml:"stoch_rsi_buy" default:"20" validate:"gte=0,lte=100"`
	StochRSISell float64 `yaml:"stoch_rsi_sell" default:"80" validate:"gte=0,lte=100"`
	// ADXStrong marks a strong trend, ADXWeak the floor below which the
	// market is considered trendless.
	ADXStrong float64 `yaml:"adx_strong" default:"25" validate:"gte=0"`
	ADXWeak   float64 `yaml:"adx_weak" default:"20" validate:"gte=0"`
	DINoTrend float64 `yaml:"di_no_trend" default:"5" validate:"gte=0"`
	// ATRPct is the minimum ATR as a percentage of the close.
	ATRPct float64 `yaml:"atr_pct" default:"0.1" validate:"gte=0"`
}

// Signals holds the per micro‑signal enable flags. A disabled signal is a
// pass-through in the consensus gate.
type Signals struct {
	Trend           bool `yaml:"trend" default:"true"`
	RSI             bool `yaml:"rsi" default:"true"`
	RSIDivergence   bool `yaml:"rsi_divergence"`
	Volume          bool `yaml:"volume" default:"true"`
	MACDCross       bool `yaml:"macd_cross"`
	MACDHistogram   bool `yaml:"macd_histogram"`
	Bollinger       bool `yaml:"bollinger"`
	Stoch           bool `yaml:"stoch"`
	StochDivergence bool `yaml:"stoch_divergence"`
	StochRSI        bool `yaml:"stoch_rsi"`
	EMACross        bool `yaml:"ema_cross"`
	EMALevel        bool `yaml:"ema_level"`
	DICross         bool `yaml:"di_cross"`
	CCI             bool `yaml:"cci"`
	CCIDivergence   bool `yaml:"cci_divergence"`
	MFI             bool `yaml:"mfi"`
	MFIDivergence   bool `yaml:"mfi_divergence"`
	ATR             bool `yaml:"atr"`
	VWAP            bool `yaml:"vwap"`
	PSAR            bool `yaml:"psar"`
	MA50            bool `yaml:"ma50"`
	MA200           bool `yaml:"ma200"`
	MACross         bool `yaml:"ma_cross"`
}

// NoSignals returns a Signals value with every flag disabled.
func NoSignals() Signals { return Signals{} }

// Averages holds the trailing-mean windows used by divergence predicates
// and by the trend classifier.
type Averages struct {
	Close  int `yaml:"close" default:"5" validate:"gte=1"`
	Volume int `yaml:"volume" default:"5" validate:"gte=1"`
	RSI    int `yaml:"rsi" default:"5" validate:"gte=1"`
	CCI    int `yaml:"cci" default:"5" validate:"gte=1"`
	MFI    int `yaml:"mfi" default:"5" validate:"gte=1"`
	Stoch  int `yaml:"stoch" default:"5" validate:"gte=1"`
	ATR    int `yaml:"atr" default:"5" validate:"gte=1"`
	Trend  int `yaml:"trend" default:"5" validate:"gte=1"`
}

// Stop and take-profit rules.
const (
	ModePercent = "percent"
	ModeATR     = "atr"
)

// Risk configures stop-loss, trailing stop and take-profit.
type Risk struct {
	// StopLossPct is the widest distance the trailing stop may sit below
	// price when the ATR rule is active.
	StopLossPct           float64 `yaml:"stop_loss_pct" default:"0.03" validate:"gt=0,lt=1"`
	TrailingStopPct       float64 `yaml:"trailing_stop_pct" default:"0.02" validate:"gt=0,lt=1"`
	TrailingMode          string  `yaml:"trailing_mode" default:"percent" validate:"oneof=percent atr"`
	TrailingATRMultiplier float64 `yaml:"trailing_atr_multiplier" default:"2" validate:"gt=0"`

	TakeProfitEnabled       bool    `yaml:"take_profit_enabled"`
	TakeProfitMode          string  `yaml:"take_profit_mode" default:"percent" validate:"oneof=percent atr"`
	TakeProfitPct           float64 `yaml:"take_profit_pct" default:"0.05" validate:"gt=0"`
	TakeProfitATRMultiplier float64 `yaml:"take_profit_atr_multiplier" default:"3" validate:"gt=0"`
}

// Sizing is the single position-sizing model shared by live trading and
// backtests.
type Sizing struct {
	// CapitalFraction of the stable balance committed per entry.
	CapitalFraction float64 `yaml:"capital_fraction" default:"1" validate:"gt=0,lte=1"`
	// MinNotional rejects entries smaller than this quote amount.
	MinNotional float64 `yaml:"min_notional" validate:"gte=0"`
}

// StrategySettings is the immutable configuration bundle for one trading
// instance.
type StrategySettings struct {
	Name       string     `yaml:"name" default:"default"`
	Symbol     string     `yaml:"symbol" default:"BTCUSDT" validate:"required"`
	Family     Family     `yaml:"family" default:"scalp" validate:"oneof=scalp swing"`
	Periods    Periods    `yaml:"periods"`
	Thresholds Thresholds `yaml:"thresholds"`
	Signals    Signals    `yaml:"signals"`
	Averages   Averages   `yaml:"averages"`
	Risk       Risk       `yaml:"risk"`
	Sizing     Sizing     `yaml:"sizing"`
}

// BacktestSettings configures a historical replay.
type BacktestSettings struct {
	InitialBalance float64 `yaml:"initial_balance" default:"1000" validate:"gt=0"`
	// TrailingBuffer is the number of bars left unevaluated at the end of
	// the series.
	TrailingBuffer int `yaml:"trailing_buffer" default:"50" validate:"gte=0"`
}

// File is the on-disk layout read by Load.
type File struct {
	Strategy StrategySettings `yaml:"strategy"`
	Backtest BacktestSettings `yaml:"backtest"`
	Infra    Infra            `yaml:"infra"`
}

// ValidationError lists every rule a settings bundle violates.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid settings: " + strings.Join(e.Problems, "; ")
}

var validate = validator.New()

// Default returns the default settings bundle.
func Default() StrategySettings {
	var s StrategySettings
	if err := defaultsSet(&s); err != nil {
		panic(err)
	}
	return s
}

// DefaultBacktest returns the default backtest settings.
func DefaultBacktest() BacktestSettings {
	var b BacktestSettings
	if err := defaultsSet(&b); err != nil {
		panic(err)
	}
	return b
}

// Load reads and validates a YAML settings file.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of the defaults and validates the result.
// Defaults are applied first so that explicit zero values in the document
// (for example a disabled signal flag) are preserved.
func Parse(data []byte) (*File, error) {
	f := File{Strategy: Default(), Backtest: DefaultBacktest(), Infra: DefaultInfra()}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := f.Strategy.Validate(); err != nil {
		return nil, err
	}
	if err := f.Backtest.Validate(); err != nil {
		return nil, err
	}
	if err := f.Infra.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks struct tags and cross-field rules and returns every
// problem found at once.
func (s *StrategySettings) Validate() error {
	var problems []string
	if err := validate.Struct(s); err != nil {
		problems = append(problems, describe(err)...)
	}
	p, t := s.Periods, s.Thresholds
	if p.EMAFast >= p.EMASlow {
		problems = append(problems, fmt.Sprintf("periods.ema_fast (%d) must be below periods.ema_slow (%d)", p.EMAFast, p.EMASlow))
	}
	if p.MACDFast >= p.MACDSlow {
		problems = append(problems, fmt.Sprintf("periods.macd_fast (%d) must be below periods.macd_slow (%d)", p.MACDFast, p.MACDSlow))
	}
	if p.SMAShort >= p.SMALong {
		problems = append(problems, fmt.Sprintf("periods.sma_short (%d) must be below periods.sma_long (%d)", p.SMAShort, p.SMALong))
	}
	if p.PSARStep > p.PSARMax {
		problems = append(problems, "periods.psar_step cannot exceed periods.psar_max")
	}
	if t.RSIBuy >= t.RSISell {
		problems = append(problems, "thresholds.rsi_buy must be below thresholds.rsi_sell")
	}
	if t.CCIBuy >= t.CCISell {
		problems = append(problems, "thresholds.cci_buy must be below thresholds.cci_sell")
	}
	if t.MFIBuy >= t.MFISell {
		problems = append(problems, "thresholds.mfi_buy must be below thresholds.mfi_sell")
	}
	if t.StochBuy >= t.StochSell {
		problems = append(problems, "thresholds.stoch_buy must be below thresholds.stoch_sell")
	}
	if t.StochRSIBuy >= t.StochRSISell {
		problems = append(problems, "thresholds.stoch_rsi_buy must be below thresholds.stoch_rsi_sell")
	}
	if t.ADXWeak > t.ADXStrong {
		problems = append(problems, "thresholds.adx_weak cannot exceed thresholds.adx_strong")
	}
	if w := s.Family.WindowSize(); s.MaxPeriod()+1 > w {
		problems = append(problems, fmt.Sprintf("longest period (%d) does not fit the %s window of %d bars", s.MaxPeriod(), s.Family, w))
	}
	if lw := s.Family.LongWindowSize(); lw > 0 {
		switch {
		case p.SMALong > lw:
			problems = append(problems, fmt.Sprintf("periods.sma_long (%d) exceeds the %s long window of %d bars", p.SMALong, s.Family, lw))
		case s.Signals.MACross && p.SMALong+1 > lw:
			// A cross compares two consecutive SMA-long values.
			problems = append(problems, fmt.Sprintf("signals.ma_cross needs %d long bars for periods.sma_long %d, the %s long window has %d", p.SMALong+1, p.SMALong, s.Family, lw))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// MaxPeriod is the longest lookback among the window indicators. The
// long-context SMAs are sized against their own window and excluded.
func (s *StrategySettings) MaxPeriod() int {
	p := s.Periods
	out := 0
	for _, v := range []int{
		p.RSI, p.CCI, p.MFI, p.ATR, p.ADX, p.EMAFast, p.EMASlow, p.Bollinger,
		p.StochK, p.StochRSI, p.MACDFast, p.MACDSlow,
	} {
		if v > out {
			out = v
		}
	}
	return out
}

// Validate checks the backtest settings.
func (b *BacktestSettings) Validate() error {
	if err := validate.Struct(b); err != nil {
		return &ValidationError{Problems: describe(err)}
	}
	return nil
}

func defaultsSet(v any) error {
	if err := defaults.Set(v); err != nil {
		return fmt.Errorf("config: defaults: %w", err)
	}
	return nil
}

func describe(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			out = append(out, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
			continue
		}
		out = append(out, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return out
}
