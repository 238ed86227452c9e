package entity

import (
	"fmt"
	"strings"
)

// LedgerPair is a configured association between two ledger assets that
// authorizes trading between them.
type LedgerPair struct {
	SourceLedger        string
	DestinationLedger   string
	SourceCurrency      string
	DestinationCurrency string
}

// ParsePairAsset splits a configured pair asset into its currency code and
// ledger identifier. An asset is either a bare ISO 4217 code ("EUR") or a
// code followed by the ledger it lives on ("EUR@https://ledger.example/");
// the currency code is always the first three characters.
func ParsePairAsset(asset string) (currency, ledger string, err error) {
	if len(asset) < 3 {
		return "", "", fmt.Errorf("pair asset %q is too short to carry a currency code", asset)
	}

	currency = strings.ToUpper(asset[:3])
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return "", "", fmt.Errorf("pair asset %q does not start with a currency code", asset)
		}
	}

	ledger = asset
	if rest, found := strings.CutPrefix(asset[3:], "@"); found && rest != "" {
		ledger = rest
	}

	return currency, ledger, nil
}

// NewLedgerPair parses both sides of a configured pair.
func NewLedgerPair(sourceAsset, destinationAsset string) (LedgerPair, error) {
	sourceCurrency, sourceLedger, err := ParsePairAsset(sourceAsset)
	if err != nil {
		return LedgerPair{}, err
	}

	destinationCurrency, destinationLedger, err := ParsePairAsset(destinationAsset)
	if err != nil {
		return LedgerPair{}, err
	}

	return LedgerPair{
		SourceLedger:        sourceLedger,
		DestinationLedger:   destinationLedger,
		SourceCurrency:      sourceCurrency,
		DestinationCurrency: destinationCurrency,
	}, nil
}

// IsCurrencyCode reports whether the identifier is a bare three-letter
// currency code rather than a ledger identifier.
func IsCurrencyCode(id string) bool {
	if len(id) != 3 {
		return false
	}
	for _, r := range strings.ToUpper(id) {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
