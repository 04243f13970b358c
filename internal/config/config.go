package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Strategy struct {
	Instruments   []string `yaml:"instruments"`
	BuyThreshold  float64  `yaml:"buy_threshold"`   // min confidence for a BUY signal
	TargetReturn  float64  `yaml:"target_return"`   // training label threshold
	LookbackDays  int      `yaml:"lookback_days"`   // bar history fetched per run
	StopLossPct   float64  `yaml:"stop_loss_pct"`   // e.g. -0.02
	TakeProfitPct float64  `yaml:"take_profit_pct"` // e.g. 0.05
}

type SizingTier struct {
	MinConfidence float64 `yaml:"min_confidence"`
	CashFraction  float64 `yaml:"cash_fraction"`
}

type Broker struct {
	BaseURL            string `yaml:"base_url"`
	APIKey             string `yaml:"api_key"`
	SecretKey          string `yaml:"secret_key"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	MaxRetries         int    `yaml:"max_retries"`
	BackoffBaseMs      int    `yaml:"backoff_base_ms"`
}

type MarketData struct {
	BaseURL            string `yaml:"base_url"`
	APIKey             string `yaml:"api_key"`
	SecretKey          string `yaml:"secret_key"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

type Paths struct {
	ModelDir string `yaml:"model_dir"` // one <SYMBOL>.onnx per instrument
	DataDir  string `yaml:"data_dir"`  // feature CSVs for the training path
	TradeLog string `yaml:"trade_log"` // audit log JSON array
}

type Root struct {
	Strategy    Strategy     `yaml:"strategy"`
	SizingTiers []SizingTier `yaml:"sizing_tiers"` // evaluated high to low
	Broker      Broker       `yaml:"broker"`
	MarketData  MarketData   `yaml:"market_data"`
	Paths       Paths        `yaml:"paths"`
}

func Load(path string) (Root, error) {
	var c Root
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Root) applyDefaults() {
	if len(c.Strategy.Instruments) == 0 {
		c.Strategy.Instruments = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA"}
	}
	if c.Strategy.BuyThreshold == 0 {
		c.Strategy.BuyThreshold = 0.60
	}
	if c.Strategy.TargetReturn == 0 {
		c.Strategy.TargetReturn = 0.002
	}
	if c.Strategy.LookbackDays == 0 {
		c.Strategy.LookbackDays = 120
	}
	if c.Strategy.StopLossPct == 0 {
		c.Strategy.StopLossPct = -0.02
	}
	if c.Strategy.TakeProfitPct == 0 {
		c.Strategy.TakeProfitPct = 0.05
	}
	if len(c.SizingTiers) == 0 {
		c.SizingTiers = []SizingTier{
			{MinConfidence: 0.70, CashFraction: 0.10},
			{MinConfidence: 0.65, CashFraction: 0.07},
			{MinConfidence: 0.60, CashFraction: 0.05},
		}
	}
	if c.Broker.BaseURL == "" {
		c.Broker.BaseURL = "https://paper-api.alpaca.markets"
	}
	if c.Broker.TimeoutSeconds == 0 {
		c.Broker.TimeoutSeconds = 10
	}
	if c.Broker.RateLimitPerMinute == 0 {
		c.Broker.RateLimitPerMinute = 200
	}
	if c.Broker.MaxRetries == 0 {
		c.Broker.MaxRetries = 3
	}
	if c.Broker.BackoffBaseMs == 0 {
		c.Broker.BackoffBaseMs = 250
	}
	if c.MarketData.BaseURL == "" {
		c.MarketData.BaseURL = "https://data.alpaca.markets"
	}
	if c.MarketData.APIKey == "" {
		c.MarketData.APIKey = c.Broker.APIKey
	}
	if c.MarketData.SecretKey == "" {
		c.MarketData.SecretKey = c.Broker.SecretKey
	}
	if c.MarketData.TimeoutSeconds == 0 {
		c.MarketData.TimeoutSeconds = 15
	}
	if c.MarketData.RateLimitPerMinute == 0 {
		c.MarketData.RateLimitPerMinute = 200
	}
	if c.Paths.ModelDir == "" {
		c.Paths.ModelDir = "models"
	}
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = "data"
	}
	if c.Paths.TradeLog == "" {
		c.Paths.TradeLog = "data/trade_log.json"
	}
}

func (c *Root) validate() error {
	if c.Strategy.StopLossPct >= 0 {
		return fmt.Errorf("stop_loss_pct must be negative, got %v", c.Strategy.StopLossPct)
	}
	if c.Strategy.TakeProfitPct <= 0 {
		return fmt.Errorf("take_profit_pct must be positive, got %v", c.Strategy.TakeProfitPct)
	}
	for i := 1; i < len(c.SizingTiers); i++ {
		if c.SizingTiers[i].MinConfidence >= c.SizingTiers[i-1].MinConfidence {
			return fmt.Errorf("sizing_tiers must be ordered high to low by min_confidence")
		}
	}
	return nil
}
