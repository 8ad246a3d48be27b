package voxelshift

import "time"

// ConversionReport is returned by [Convert] on success.
type ConversionReport struct {
	OutputPath    string
	LayerCount    int
	Duration      time.Duration
	TargetProfile TargetProfile
	OutputBytes   int64
}
