// Package config loads and validates the TOML job file describing a staking batch
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/gagliardetto/solana-go"

	"github.com/screwyprof/jupstaker/pkg/keyfile"
	"github.com/screwyprof/jupstaker/staker"
)

// Sentinel errors, one per user-facing configuration failure
var (
	ErrReadConfig          = errors.New("cannot read config file")
	ErrParseConfig         = errors.New("config file is not valid TOML for this job")
	ErrMissingRPCURL       = errors.New("rpc_url is not set")
	ErrMissingAmount       = errors.New("neither amount nor amount_range is set")
	ErrMissingAccountsPath = errors.New("accounts_path is not set")
	ErrInvalidAmount       = errors.New("amount must be a positive number of tokens")
	ErrInvalidAmountRange  = errors.New("amount_range must be [min, max] with 0 < min <= max containing a whole token")
	ErrInvalidFeePayer     = errors.New("fee_payer is not a valid secret key")
	ErrAccountsFile        = errors.New("cannot load accounts file")
)

// Config mirrors the job file. Amounts are in tokens and may be fractional.
type Config struct {
	RPCURL       string    `toml:"rpc_url"`
	Amount       float64   `toml:"amount"`
	AmountRange  []float64 `toml:"amount_range"`
	AccountsPath string    `toml:"accounts_path"`
	FeePayer     string    `toml:"fee_payer"`
}

// Job is a validated config with its key material decoded
type Job struct {
	RPCURL   string
	Network  staker.Network
	Policy   staker.AmountPolicy
	Accounts []solana.PrivateKey
	FeePayer solana.PrivateKey // nil when accounts pay their own fees
}

// Parse decodes a job file from its TOML contents
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParseConfig, err)
	}
	return cfg, nil
}

// Validate checks required fields in the order a user is most likely to fix them
func (c Config) Validate() error {
	if c.Amount == 0 && len(c.AmountRange) == 0 {
		return ErrMissingAmount
	}
	if c.RPCURL == "" {
		return ErrMissingRPCURL
	}
	if c.AccountsPath == "" {
		return ErrMissingAccountsPath
	}
	_, err := c.Policy()
	return err
}

// Policy returns the amount policy described by the config on mainnet
func (c Config) Policy() (staker.AmountPolicy, error) {
	return c.policy(staker.Mainnet())
}

func (c Config) policy(network staker.Network) (staker.AmountPolicy, error) {
	if c.Amount != 0 {
		units, err := network.Units(c.Amount)
		if err != nil {
			return staker.AmountPolicy{}, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
		}
		return staker.AmountPolicy{Exact: units}, nil
	}
	if len(c.AmountRange) == 0 {
		return staker.AmountPolicy{}, nil
	}
	r, err := c.amountRange(network)
	if err != nil {
		return staker.AmountPolicy{}, err
	}
	return staker.AmountPolicy{Range: &r}, nil
}

// amountRange narrows the configured bounds to whole tokens: ceil(min)..floor(max)
func (c Config) amountRange(network staker.Network) (staker.AmountRange, error) {
	if len(c.AmountRange) != 2 {
		return staker.AmountRange{}, fmt.Errorf("%w: got %d values", ErrInvalidAmountRange, len(c.AmountRange))
	}
	lo, hi := c.AmountRange[0], c.AmountRange[1]
	if math.IsNaN(lo) || math.IsNaN(hi) || lo <= 0 || lo > hi {
		return staker.AmountRange{}, fmt.Errorf("%w: got [%v, %v]", ErrInvalidAmountRange, lo, hi)
	}

	lo, hi = math.Ceil(lo), math.Floor(hi)
	if lo > hi {
		return staker.AmountRange{}, fmt.Errorf("%w: no whole token in [%v, %v]",
			ErrInvalidAmountRange, c.AmountRange[0], c.AmountRange[1])
	}
	if limit := network.MaxTokens(); hi > float64(limit) {
		return staker.AmountRange{}, fmt.Errorf("%w: max %v exceeds %d tokens: %w",
			ErrInvalidAmountRange, c.AmountRange[1], limit, staker.ErrAmountOverflow)
	}

	return staker.AmountRange{Min: uint64(lo), Max: uint64(hi)}, nil
}

// Load reads, validates and decodes the job file at path.
// Everything that can fail before touching the network fails here.
func Load(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("%w: %w", ErrReadConfig, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Job{}, err
	}

	return cfg.Job()
}

// Job validates the config and decodes its key material
func (c Config) Job() (Job, error) {
	if err := c.Validate(); err != nil {
		return Job{}, err
	}

	policy, err := c.Policy()
	if err != nil {
		return Job{}, err
	}

	var feePayer solana.PrivateKey
	if c.FeePayer != "" {
		feePayer, err = keyfile.DecodeSecret(c.FeePayer)
		if err != nil {
			return Job{}, fmt.Errorf("%w: %w", ErrInvalidFeePayer, err)
		}
	}

	accounts, err := keyfile.Load(c.AccountsPath)
	if err != nil {
		return Job{}, fmt.Errorf("%w: %w", ErrAccountsFile, err)
	}

	return Job{
		RPCURL:   c.RPCURL,
		Network:  staker.Mainnet(),
		Policy:   policy,
		Accounts: accounts,
		FeePayer: feePayer,
	}, nil
}
