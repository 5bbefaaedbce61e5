package models

import "time"

// VolumeInfo represents a stale (unattached) EBS volume
type VolumeInfo struct {
	VolumeID             string
	Name                 string
	Size                 int
	VolumeType           string
	State                string
	Region               string
	AvailabilityZone     string
	CreationTime         time.Time
	LastAttachmentTime   *time.Time
	ElapsedDaysSinceUsed int
	EstimatedMonthlyCost float64
	EstimatedSavings     float64
	PricingSource        string // "API", "Cache", or "Default"
}

// RegionSweep holds the result of sweeping a single region
type RegionSweep struct {
	Region       string
	TotalVolumes int
	StaleVolumes []VolumeInfo
	Actions      []Action
}
