package redis

const (
	// KeyPrefixCampaign is the prefix for campaign records (JSON).
	KeyPrefixCampaign = "smartlink:campaign:"
	// KeyPrefixEndpoint is the prefix for endpoint records (JSON).
	KeyPrefixEndpoint = "smartlink:endpoint:"
	// KeyPrefixLink is the prefix for link records (JSON), keyed by slug.
	KeyPrefixLink = "smartlink:link:"
	// KeyAutoCheckCampaigns is the set of campaign IDs with auto-check on.
	KeyAutoCheckCampaigns = "smartlink:campaigns:autocheck"
)

// CampaignKey returns the Redis key for a campaign by ID.
func CampaignKey(id string) string {
	return KeyPrefixCampaign + id
}

// CampaignEndpointsKey returns the key of the set of endpoint IDs owned by
// a campaign.
func CampaignEndpointsKey(id string) string {
	return KeyPrefixCampaign + id + ":endpoints"
}

// CampaignLinksKey returns the key of the set of link slugs attached to a
// campaign.
func CampaignLinksKey(id string) string {
	return KeyPrefixCampaign + id + ":links"
}

// EndpointKey returns the Redis key for an endpoint's static record.
func EndpointKey(id string) string {
	return KeyPrefixEndpoint + id
}

// EndpointHealthKey returns the key of the hash carrying an endpoint's
// mutable health fields. A hash, so consecutive_failures can be bumped
// with HINCRBY instead of read-modify-write.
func EndpointHealthKey(id string) string {
	return KeyPrefixEndpoint + id + ":health"
}

// LinkKey returns the Redis key for a link by slug.
func LinkKey(slug string) string {
	return KeyPrefixLink + slug
}
