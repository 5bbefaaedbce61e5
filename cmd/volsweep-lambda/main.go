package main

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/volsweep/volsweep/internal/config"
	"github.com/volsweep/volsweep/internal/sweep"
)

// handler runs one scheduled sweep. Configuration comes from the
// function environment; any scan-level failure fails the invocation and
// is left to the schedule to retry.
func handler(ctx context.Context) (string, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return "", err
	}

	runner, err := sweep.New(ctx, cfg)
	if err != nil {
		return "", err
	}

	rep, err := runner.Run(ctx)
	if err != nil {
		log.Printf("sweep failed: %v", err)
		return "", err
	}

	summary := fmt.Sprintf("Sweep complete. Total: %d, Stale: %d, Mode: %s",
		rep.TotalVolumes, rep.StaleCount(), rep.Mode)
	log.Println(summary)
	return summary, nil
}

func main() {
	lambda.Start(handler)
}
