package voxelshift

// LayerManifestEntry is the per-layer record written into slice.json.
type LayerManifestEntry struct {
	Index       int        `json:"index"`
	ZMM         float64    `json:"z_mm"`
	AreaMM2     float64    `json:"area_mm2"`
	IslandCount int        `json:"island_count"`
	BBox        [4]int     `json:"bbox"`
}

// Manifest is the archive-level metadata written as slice.json, the first
// entry in every output archive.
type Manifest struct {
	ResolutionX      int                  `json:"resolution_x"`
	ResolutionY      int                  `json:"resolution_y"`
	LayerCount       int                  `json:"layer_count"`
	LayerHeightMM    float64              `json:"layer_height_mm"`
	BottomLayerCount int                  `json:"bottom_layer_count"`
	ExposureS        float64              `json:"exposure_s"`
	BottomExposureS  float64              `json:"bottom_exposure_s"`
	LiftHeightMM     float64              `json:"lift_height_mm"`
	PrintHeightMM    float64              `json:"print_height_mm"`
	ProfileLabel     string               `json:"profile_label"`
	Layers           []LayerManifestEntry `json:"layers"`
}
