package pricing

import (
	"sync"
)

// PricingSource represents the source of pricing information
type PricingSource string

const (
	// PricingSourceAPI indicates pricing data came from the AWS API
	PricingSourceAPI PricingSource = "API"

	// PricingSourceCache indicates pricing data came from the in-process cache
	PricingSourceCache PricingSource = "Cache"

	// PricingSourceDefault indicates pricing data came from the fallback table
	PricingSourceDefault PricingSource = "Default"

	// PricingSourceNA indicates pricing data is not available
	PricingSourceNA PricingSource = "N/A"
)

var (
	// apiStats tracks Pricing API calls per region: success, failure, cache
	apiStats     = make(map[string]map[string]int)
	apiStatsLock sync.RWMutex

	// ebsPriceCache caches GB-month prices keyed by "type:region"
	ebsPriceCache     = make(map[string]float64)
	ebsPriceCacheLock sync.RWMutex
)

// DefaultEBSPrices holds fallback USD per GB-month prices used when the
// Pricing API is unreachable
var DefaultEBSPrices = map[string]map[string]float64{
	"us-east-1": {
		"gp2":      0.10,
		"gp3":      0.08,
		"io1":      0.125,
		"io2":      0.125,
		"st1":      0.045,
		"sc1":      0.025,
		"standard": 0.05,
	},
	"ap-south-1": {
		"gp2":      0.114,
		"gp3":      0.0912,
		"io1":      0.131,
		"io2":      0.131,
		"st1":      0.051,
		"sc1":      0.029,
		"standard": 0.08,
	},
	"ap-northeast-2": {
		"gp2":      0.114,
		"gp3":      0.092,
		"io1":      0.142,
		"io2":      0.142,
		"st1":      0.051,
		"sc1":      0.029,
		"standard": 0.057,
	},
}

func recordStat(region, kind string) {
	apiStatsLock.Lock()
	defer apiStatsLock.Unlock()

	if _, ok := apiStats[region]; !ok {
		apiStats[region] = map[string]int{"success": 0, "failure": 0, "cache": 0}
	}
	apiStats[region][kind]++
}

// GetAPIStats returns a copy of the Pricing API call statistics per region
func GetAPIStats() map[string]map[string]int {
	apiStatsLock.RLock()
	defer apiStatsLock.RUnlock()

	out := make(map[string]map[string]int, len(apiStats))
	for region, counts := range apiStats {
		c := make(map[string]int, len(counts))
		for k, v := range counts {
			c[k] = v
		}
		out[region] = c
	}
	return out
}
