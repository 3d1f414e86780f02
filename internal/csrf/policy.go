package csrf

import (
	"fmt"
	"net/http"
)

// Mode selects which route classes the engine protects
type Mode int

const (
	// ModeHybrid protects both API and server-rendered traffic
	ModeHybrid Mode = iota

	// ModeAPIOnly protects API-classified requests only
	ModeAPIOnly

	// ModeSSROnly protects server-rendered requests only
	ModeSSROnly

	// ModeDisabled turns protection off entirely. Construction logs this
	// as a standing risk; it is never silent.
	ModeDisabled
)

// String returns the canonical name of the mode
func (m Mode) String() string {
	switch m {
	case ModeHybrid:
		return "hybrid"
	case ModeAPIOnly:
		return "api_only"
	case ModeSSROnly:
		return "ssr_only"
	case ModeDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Delivery selects which channels fresh tokens are attached to
type Delivery int

const (
	// DeliveryBoth sends tokens via header and cookie
	DeliveryBoth Delivery = iota

	// DeliveryHeaderOnly sends tokens via the response header only
	DeliveryHeaderOnly

	// DeliveryCookieOnly sends tokens via cookie only
	DeliveryCookieOnly

	// DeliveryMetaTag hands the token to the caller for meta-tag rendering
	DeliveryMetaTag
)

// String returns the canonical name of the delivery channel
func (d Delivery) String() string {
	switch d {
	case DeliveryBoth:
		return "both"
	case DeliveryHeaderOnly:
		return "header_only"
	case DeliveryCookieOnly:
		return "cookie_only"
	case DeliveryMetaTag:
		return "meta_tag"
	default:
		return fmt.Sprintf("delivery(%d)", int(d))
	}
}

// usesCookie reports whether the cookie channel participates in delivery
func (d Delivery) usesCookie() bool {
	return d == DeliveryBoth || d == DeliveryCookieOnly
}

// CookieAttributes control the csrf_token cookie the caller sets
type CookieAttributes struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	HttpOnly bool
	SameSite http.SameSite
}

// DefaultCookieAttributes returns the attributes used when none are
// configured. HttpOnly is off because double-submit requires script
// access to echo the cookie value into the header or form field.
func DefaultCookieAttributes() CookieAttributes {
	return CookieAttributes{
		Name:     "csrf_token",
		Path:     "/",
		Secure:   true,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	}
}

// Policy is the per-portal CSRF configuration
type Policy struct {
	Mode                Mode
	Delivery            Delivery
	RequireRefererCheck bool
	AllowedOrigins      []string
	Cookie              CookieAttributes

	// APIPrefixes classify requests as API-style
	APIPrefixes []string

	// SSRPrefixes classify requests as server-rendered
	SSRPrefixes []string
}

// DefaultPolicy returns a hybrid policy protecting /api/ and /portal/
func DefaultPolicy() Policy {
	return Policy{
		Mode:        ModeHybrid,
		Delivery:    DeliveryBoth,
		Cookie:      DefaultCookieAttributes(),
		APIPrefixes: []string{"/api/"},
		SSRPrefixes: []string{"/portal/"},
	}
}
