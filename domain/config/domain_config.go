package config

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Graph constraints
	MaxNodesPerGraph int
	MaxEdgesPerGraph int

	// Layout constants, in canvas units. Fallback sizes apply when the
	// renderer cannot report the live bounding box of a node.
	FallbackNodeWidth   float64
	FallbackNodeHeight  float64
	InputNodeWidth      float64
	HorizontalGap       float64
	BranchVerticalGap   float64
	FollowUpVerticalGap float64
	DetachedOffsetX     float64
	DetachedOffsetY     float64

	// Seed input node placed on an empty canvas
	SeedPositionX float64
	SeedPositionY float64

	// Topic naming
	DefaultTopicPrefix string
	TopicTitleRunes    int

	// Streaming
	ThinkingPlaceholder string
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Graph constraints
		MaxNodesPerGraph: 10000,
		MaxEdgesPerGraph: 50000,

		// Layout
		FallbackNodeWidth:   450,
		FallbackNodeHeight:  250,
		InputNodeWidth:      400,
		HorizontalGap:       50,
		BranchVerticalGap:   150,
		FollowUpVerticalGap: 200,
		DetachedOffsetX:     300,
		DetachedOffsetY:     150,

		// Seed node
		SeedPositionX: 400,
		SeedPositionY: 300,

		// Topic naming
		DefaultTopicPrefix: "New Topic",
		TopicTitleRunes:    10,

		// Streaming
		ThinkingPlaceholder: "Thinking...",
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	return nil
}
