package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/volsweep/volsweep/pkg/utils"
)

// EBSMonthlyCost calculates the monthly cost of an EBS volume and reports
// where the price came from
func EBSMonthlyCost(volumeType string, sizeGB int, region string) (float64, string) {
	cacheKey := fmt.Sprintf("ebs:%s:%s", volumeType, region)

	ebsPriceCacheLock.RLock()
	if price, found := ebsPriceCache[cacheKey]; found {
		ebsPriceCacheLock.RUnlock()
		recordStat(region, "cache")
		return float64(sizeGB) * price, string(PricingSourceCache)
	}
	ebsPriceCacheLock.RUnlock()

	price, err := ebsPriceFromAPI(volumeType, region)
	if err == nil {
		recordStat(region, "success")

		ebsPriceCacheLock.Lock()
		ebsPriceCache[cacheKey] = price
		ebsPriceCacheLock.Unlock()

		return float64(sizeGB) * price, string(PricingSourceAPI)
	}

	log.Printf("Error getting EBS price from API: %v. Using fallback pricing for %s in %s.", err, volumeType, region)
	recordStat(region, "failure")

	if price, ok := fallbackPrice(volumeType, region); ok {
		return float64(sizeGB) * price, string(PricingSourceDefault)
	}
	return 0, string(PricingSourceNA)
}

// EBSSavings estimates the monthly savings from removing an unused volume
func EBSSavings(volumeType string, sizeGB int, region string) float64 {
	cost, source := EBSMonthlyCost(volumeType, sizeGB, region)
	if source == string(PricingSourceNA) {
		return 0
	}
	return cost
}

// fallbackPrice looks up the hardcoded GB-month price, degrading to gp2
// and then to us-east-1 when the exact entry is missing
func fallbackPrice(volumeType, region string) (float64, bool) {
	for _, r := range []string{region, "us-east-1"} {
		regionPrices, found := DefaultEBSPrices[r]
		if !found {
			continue
		}
		if price, found := regionPrices[volumeType]; found {
			return price, true
		}
		if price, found := regionPrices["gp2"]; found {
			return price, true
		}
	}
	return 0, false
}

// ebsPriceFromAPI retrieves the GB-month price for a volume type from the
// AWS Pricing API
func ebsPriceFromAPI(volumeType, region string) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filters := []types.Filter{
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("volumeType"),
			Value: aws.String(volumeTypeFilterValue(volumeType)),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("location"),
			Value: aws.String(utils.GetRegionDescriptiveName(region)),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("productFamily"),
			Value: aws.String("Storage"),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("regionCode"),
			Value: aws.String(region),
		},
	}

	products, err := getProducts(ctx, "AmazonEC2", filters)
	if err != nil {
		return 0, err
	}

	// The volumeType filter matches a family (e.g. "General Purpose"),
	// so find the product whose volumeApiName is the exact type.
	for _, product := range products {
		var priceData map[string]interface{}
		if err := json.Unmarshal([]byte(product), &priceData); err != nil {
			continue
		}

		attrs, ok := nestedMap(priceData, "product", "attributes")
		if !ok {
			continue
		}
		if apiName, ok := attrs["volumeApiName"].(string); ok && apiName == volumeType {
			return extractGBMonthPrice(priceData)
		}
	}

	return 0, fmt.Errorf("no exact match found for EBS volume type %s in region %s", volumeType, region)
}

// volumeTypeFilterValue maps EBS volume types to Pricing API family names
func volumeTypeFilterValue(volumeType string) string {
	switch volumeType {
	case "gp2", "gp3":
		return "General Purpose"
	case "io1", "io2":
		return "Provisioned IOPS"
	case "st1":
		return "Throughput Optimized HDD"
	case "sc1":
		return "Cold HDD"
	case "standard":
		return "Magnetic"
	default:
		return "General Purpose"
	}
}

// extractGBMonthPrice digs the USD GB-month price out of a Pricing API product
func extractGBMonthPrice(priceData map[string]interface{}) (float64, error) {
	onDemand, ok := nestedMap(priceData, "terms", "OnDemand")
	if !ok {
		return 0, fmt.Errorf("OnDemand terms not found")
	}

	skuOffer, err := firstMapValue(onDemand)
	if err != nil {
		return 0, fmt.Errorf("no SKU offer found")
	}

	priceDimensions, ok := skuOffer["priceDimensions"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("priceDimensions not found")
	}

	dimension, err := firstMapValue(priceDimensions)
	if err != nil {
		return 0, fmt.Errorf("no price dimension found")
	}

	unit, ok := dimension["unit"].(string)
	if !ok || (unit != "GB-Mo" && unit != "GB-month") {
		return 0, fmt.Errorf("unexpected pricing unit: %v", dimension["unit"])
	}

	pricePerUnit, ok := dimension["pricePerUnit"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("pricePerUnit not found")
	}

	usd, ok := pricePerUnit["USD"].(string)
	if !ok {
		return 0, fmt.Errorf("USD price not found")
	}

	price, err := strconv.ParseFloat(usd, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing price: %w", err)
	}

	return price, nil
}

func nestedMap(data map[string]interface{}, keys ...string) (map[string]interface{}, bool) {
	current := data
	for _, key := range keys {
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func firstMapValue(m map[string]interface{}) (map[string]interface{}, error) {
	for _, v := range m {
		if mv, ok := v.(map[string]interface{}); ok {
			return mv, nil
		}
	}
	return nil, fmt.Errorf("map is empty")
}
