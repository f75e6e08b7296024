package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/voting-contract/poll"
	"gopkg.in/yaml.v3"
)

// pollConfig is a YAML representation of poll.Config.
//
// Example:
//
//	owner: NbUgTSFvPmsRxmGeWpuuGeJUoRoi6PErcM
//	options:
//	  - yes
//	  - no
//	entrance_fee: "0.5"
//	interval: 24h
type pollConfig struct {
	// Neo address of the owner, defaults to the deploying account.
	Owner string `yaml:"owner"`
	// Options in the order they are reported.
	Options []string `yaml:"options"`
	// Decimal amount of GAS, e.g. "1.5".
	EntranceFee string `yaml:"entrance_fee"`
	// Go duration, e.g. "1h30m". Rounded down to whole seconds.
	Interval string `yaml:"interval"`
}

func readPollConfig(r io.Reader) (poll.Config, error) {
	var (
		res poll.Config
		raw pollConfig
	)

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	err := dec.Decode(&raw)
	if err != nil {
		return res, fmt.Errorf("decode YAML: %w", err)
	}

	if raw.Owner != "" {
		res.Owner, err = address.StringToUint160(raw.Owner)
		if err != nil {
			return res, fmt.Errorf("invalid owner: %w", err)
		}
	}

	res.Options = raw.Options

	if raw.EntranceFee != "" {
		fee, err := fixedn.FromString(raw.EntranceFee, 8)
		if err != nil {
			return res, fmt.Errorf("invalid entrance fee: %w", err)
		}

		if !fee.IsInt64() {
			return res, errors.New("entrance fee is too big")
		}

		res.EntranceFee = fee.Int64()
	}

	if raw.Interval == "" {
		return res, errors.New("missing interval")
	}

	res.Interval, err = time.ParseDuration(raw.Interval)
	if err != nil {
		return res, fmt.Errorf("invalid interval: %w", err)
	}

	err = res.Validate()
	if err != nil {
		return res, err
	}

	return res, nil
}
