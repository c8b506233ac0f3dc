package scanner

import "fmt"

// Config holds the tunable knobs of the scan pipeline. The defaults were
// tuned on leggio captures of bound volumes and work for most photographed
// documents.
type Config struct {
	// QualityThreshold is the minimum fold quality for classification and
	// spread splitting.
	QualityThreshold float64 `mapstructure:"quality-threshold" yaml:"quality-threshold" json:"quality_threshold"`

	// ContourBorder is the pixel margin kept around the corrected page.
	ContourBorder int `mapstructure:"contour-border" yaml:"contour-border" json:"contour_border"`

	// FoldBorder is the pixel overlap each half keeps past the fold when
	// splitting a spread.
	FoldBorder int `mapstructure:"fold-border" yaml:"fold-border" json:"fold_border"`

	// CenterSearchRatio is the width of the central fold search band as a
	// fraction of the image width.
	CenterSearchRatio float64 `mapstructure:"center-search-ratio" yaml:"center-search-ratio" json:"center_search_ratio"`

	// JPEGQuality is used when saving JPEG outputs.
	JPEGQuality int `mapstructure:"jpeg-quality" yaml:"jpeg-quality" json:"jpeg_quality"`

	// Debug enables verbose per-stage logging.
	Debug bool `mapstructure:"debug" yaml:"debug" json:"debug"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		QualityThreshold:  0.6,
		ContourBorder:     150,
		FoldBorder:        150,
		CenterSearchRatio: 0.30,
		JPEGQuality:       90,
	}
}

// Validate checks the configuration for out-of-range values.
func (c Config) Validate() error {
	if c.QualityThreshold < 0 || c.QualityThreshold > 1 {
		return fmt.Errorf("quality threshold %v outside [0,1]", c.QualityThreshold)
	}
	if c.ContourBorder < 0 {
		return fmt.Errorf("contour border %d must be non-negative", c.ContourBorder)
	}
	if c.FoldBorder < 0 {
		return fmt.Errorf("fold border %d must be non-negative", c.FoldBorder)
	}
	if c.CenterSearchRatio <= 0 || c.CenterSearchRatio > 1 {
		return fmt.Errorf("center search ratio %v outside (0,1]", c.CenterSearchRatio)
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality %d outside [0,100]", c.JPEGQuality)
	}
	return nil
}
