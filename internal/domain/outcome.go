package domain

// Outcome is the terminal decision of one smart-link resolution.
// Exactly one of Redirect, Fallback or NoOffer.
type Outcome interface {
	outcome()
}

// Redirect sends the visitor to an endpoint that just passed a live probe.
type Redirect struct {
	URL        string
	EndpointID string
}

// Fallback sends the visitor to the link's configured escape-hatch URL
// because no endpoint was usable.
type Fallback struct {
	URL string
}

// NoOffer means there is nowhere to send the visitor: no endpoint passed
// and no fallback is configured. The HTTP layer renders it as a 503 page.
type NoOffer struct {
	Message string
}

func (Redirect) outcome() {}
func (Fallback) outcome() {}
func (NoOffer) outcome()  {}
