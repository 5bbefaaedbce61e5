package pricing

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
)

var (
	client   *pricing.Client
	initOnce sync.Once

	// initMessage is shown once after the client has been set up
	initMessage string
)

// initClient initializes the AWS Pricing client.
// The Pricing API is only served from us-east-1 and ap-south-1.
func initClient() {
	const pricingRegion = "us-east-1"

	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(pricingRegion))
	if err != nil {
		initMessage = fmt.Sprintf("Error loading AWS config for pricing API: %v. Using fallback pricing.", err)
		return
	}

	client = pricing.NewFromConfig(cfg)
	initMessage = fmt.Sprintf("AWS Pricing API initialized in %s region", pricingRegion)
}

// GetInitMessage returns the initialization message once, then clears it
func GetInitMessage() string {
	msg := initMessage
	initMessage = ""
	return msg
}

// getProducts queries the Pricing API with the given filters
func getProducts(ctx context.Context, serviceCode string, filters []types.Filter) ([]string, error) {
	initOnce.Do(initClient)

	if client == nil {
		return nil, fmt.Errorf("AWS pricing client not initialized")
	}

	input := &pricing.GetProductsInput{
		ServiceCode: aws.String(serviceCode),
		Filters:     filters,
		MaxResults:  aws.Int32(100),
	}

	resp, err := client.GetProducts(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("error calling AWS Pricing API: %w", err)
	}
	if len(resp.PriceList) == 0 {
		return nil, fmt.Errorf("no pricing products matched")
	}

	return resp.PriceList, nil
}
