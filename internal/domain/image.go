package domain

// Image is an externally hosted asset. AssetID identifies it at the provider
// so it can be retired when replaced or deleted.
type Image struct {
	URL     string `json:"url"`
	AssetID string `json:"asset_id,omitempty"`
}
