package cache

// Keyer derives cache keys for pipeline stages.
type Keyer interface {
	// CompositeKey keys a composite by the hash of its ordered inputs and the layout settings.
	CompositeKey(inputHash string, opts CompositeKeyOpts) string

	// ExportKey keys an encoded export by the composite hash and the export settings.
	ExportKey(compositeHash string, opts ExportKeyOpts) string
}

// CompositeKeyOpts holds the layout settings that affect a composite.
type CompositeKeyOpts struct {
	Orientation string `json:"orientation"`
	Alignment   string `json:"alignment"`
	Gap         int    `json:"gap"`
}

// ExportKeyOpts holds the export settings that affect encoded output.
type ExportKeyOpts struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	KeepAspect bool    `json:"keep_aspect"`
	Quality    float64 `json:"quality"`
	Format     string  `json:"format"`
	Background string  `json:"background,omitempty"`
}

// DefaultKeyer produces "composite:<sha256>" and "export:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// CompositeKey implements Keyer.
func (DefaultKeyer) CompositeKey(inputHash string, opts CompositeKeyOpts) string {
	return stageKey("composite", inputHash, opts)
}

// ExportKey implements Keyer.
func (DefaultKeyer) ExportKey(compositeHash string, opts ExportKeyOpts) string {
	return stageKey("export", compositeHash, opts)
}
