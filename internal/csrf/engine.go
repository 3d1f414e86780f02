package csrf

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"trustguard/internal/observability"

	"go.uber.org/zap"
)

// FailureReason classifies why a CSRF check failed. The taxonomy is kept
// fine-grained for operators; callers still answer with a generic 403.
type FailureReason string

const (
	// ReasonNoTokenPresent means no token arrived on any accepted channel
	ReasonNoTokenPresent FailureReason = "no_token_present"

	// ReasonTokenExpired means the token outlived its lifetime
	ReasonTokenExpired FailureReason = "token_expired"

	// ReasonSignatureInvalid means the token failed signature or shape checks
	ReasonSignatureInvalid FailureReason = "signature_invalid"

	// ReasonBindingMismatch means a session or user binding did not match
	ReasonBindingMismatch FailureReason = "binding_mismatch"

	// ReasonDoubleSubmitMismatch means cookie and header/form tokens differ
	ReasonDoubleSubmitMismatch FailureReason = "double_submit_mismatch"

	// ReasonRefererRejected means the referer origin is not allowed
	ReasonRefererRejected FailureReason = "referer_rejected"
)

// Request is the read-only view of an inbound request the engine needs
type Request struct {
	Method      string
	Path        string
	Host        string
	ContentType string
	Referer     string

	// HeaderToken is the X-CSRF-Token request header value
	HeaderToken string

	// CookieToken is the csrf_token cookie value
	CookieToken string

	// FormToken is the csrf_token form field value
	FormToken string
}

// Decision tells the caller what to do with the request and which token
// material to attach to the response. The engine never writes to the
// network itself; applying SetHeader/SetCookie is the caller's contract.
type Decision struct {
	Allowed bool
	Reason  FailureReason

	// FreshToken is a newly issued token to attach, empty when none
	FreshToken string

	// SetHeader asks the caller to send FreshToken as X-CSRF-Token
	SetHeader bool

	// SetCookie asks the caller to set the csrf_token cookie
	SetCookie bool

	// Cookie carries the attributes for SetCookie
	Cookie CookieAttributes
}

// Engine decides per request which token sources are authoritative and
// how new tokens are delivered. Safe for concurrent use; the policy is
// immutable after construction.
type Engine struct {
	codec   *Codec
	policy  Policy
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewEngine creates a CSRF policy engine. A Disabled policy constructs
// successfully but is logged loudly as a standing risk.
func NewEngine(codec *Codec, policy Policy, logger *observability.Logger, metrics *observability.Metrics) (*Engine, error) {
	if codec == nil {
		return nil, errors.New("csrf codec must not be nil")
	}

	if policy.Cookie.Name == "" {
		policy.Cookie = DefaultCookieAttributes()
	}

	if policy.Mode == ModeDisabled {
		logger.Warn("CSRF protection is DISABLED; every mutating request will be accepted without a token",
			zap.String("mode", policy.Mode.String()))
	}

	return &Engine{
		codec:   codec,
		policy:  policy,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Policy returns the engine's active policy; the compliance auditor
// reads it to evaluate posture.
func (e *Engine) Policy() Policy {
	return e.policy
}

// safeMethods never mutate state and therefore never require a token
var safeMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

// Check evaluates one request. Safe methods are always allowed and
// always receive a freshly generated token for sliding expiry. Unsafe
// methods must present a valid token on the channel that is
// authoritative for their route class.
func (e *Engine) Check(req *Request, sessionID, userID string) Decision {
	if e.policy.Mode == ModeDisabled {
		return Decision{Allowed: true}
	}

	if safeMethods[req.Method] {
		return e.issue(sessionID, userID)
	}

	isAPI := e.classifyAPI(req)
	isSSR := e.classifySSR(req)

	switch e.policy.Mode {
	case ModeAPIOnly:
		if !isAPI {
			return Decision{Allowed: true}
		}
	case ModeSSROnly:
		if !isSSR {
			return Decision{Allowed: true}
		}
	}

	token, ok := e.authoritativeToken(req, isAPI)
	if !ok {
		return e.fail(ReasonNoTokenPresent)
	}

	if err := e.codec.Validate(token, sessionID, userID); err != nil {
		return e.fail(reasonForError(err))
	}

	// Double-submit: whenever cookie delivery is on and a cookie token
	// rode along, it must byte-equal the authoritative token. Two tokens
	// that are each individually valid but different is exactly the
	// fixation pattern this defeats.
	if e.policy.Delivery.usesCookie() && req.CookieToken != "" && req.CookieToken != token {
		return e.fail(ReasonDoubleSubmitMismatch)
	}

	if e.policy.RequireRefererCheck {
		if !e.refererAllowed(req) {
			return e.fail(ReasonRefererRejected)
		}
	}

	return Decision{Allowed: true}
}

// issue builds the allowed decision carrying a fresh token
func (e *Engine) issue(sessionID, userID string) Decision {
	token, err := e.codec.Generate(sessionID, userID)
	if err != nil {
		e.logger.Error("csrf token generation failed", err)
		return Decision{Allowed: true}
	}

	e.metrics.RecordCSRFTokenIssued()

	d := Decision{
		Allowed:    true,
		FreshToken: token,
		Cookie:     e.policy.Cookie,
	}

	switch e.policy.Delivery {
	case DeliveryHeaderOnly:
		d.SetHeader = true
	case DeliveryCookieOnly:
		d.SetCookie = true
	case DeliveryBoth:
		d.SetHeader = true
		d.SetCookie = true
	case DeliveryMetaTag:
		// the caller renders the token into a meta tag; nothing to set
	}

	return d
}

// authoritativeToken picks the token channel for the route class. For
// API traffic the header wins, with the cookie as a double-submit
// fallback when delivery allows it. For SSR traffic the form field wins,
// falling back to the header for progressive-enhancement clients.
func (e *Engine) authoritativeToken(req *Request, isAPI bool) (string, bool) {
	if isAPI {
		if req.HeaderToken != "" {
			return req.HeaderToken, true
		}
		if e.policy.Delivery.usesCookie() && req.CookieToken != "" {
			return req.CookieToken, true
		}
		return "", false
	}

	if req.FormToken != "" {
		return req.FormToken, true
	}
	if req.HeaderToken != "" {
		return req.HeaderToken, true
	}
	return "", false
}

// classifyAPI reports whether the request is API-style
func (e *Engine) classifyAPI(req *Request) bool {
	for _, prefix := range e.policy.APIPrefixes {
		if strings.HasPrefix(req.Path, prefix) {
			return true
		}
	}
	return false
}

// classifySSR reports whether the request is server-rendered style.
// Form-encoded bodies classify as SSR regardless of path.
func (e *Engine) classifySSR(req *Request) bool {
	for _, prefix := range e.policy.SSRPrefixes {
		if strings.HasPrefix(req.Path, prefix) {
			return true
		}
	}

	ct := req.ContentType
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data")
}

// refererAllowed checks the referer origin against the allow-list and
// the request's own host. A valid token is not sufficient without it
// when the policy demands the check.
func (e *Engine) refererAllowed(req *Request) bool {
	if req.Referer == "" {
		return false
	}

	ref, err := url.Parse(req.Referer)
	if err != nil || ref.Host == "" {
		return false
	}

	if ref.Host == req.Host {
		return true
	}

	origin := fmt.Sprintf("%s://%s", ref.Scheme, ref.Host)
	for _, allowed := range e.policy.AllowedOrigins {
		if strings.TrimRight(allowed, "/") == origin || allowed == ref.Host {
			return true
		}
	}

	return false
}

// fail logs and counts a rejection
func (e *Engine) fail(reason FailureReason) Decision {
	e.logger.Warn("csrf check failed", zap.String("reason", string(reason)))
	e.metrics.RecordCSRFFailure(string(reason))

	return Decision{Allowed: false, Reason: reason}
}

// reasonForError maps codec errors onto the failure taxonomy
func reasonForError(err error) FailureReason {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return ReasonTokenExpired
	case errors.Is(err, ErrBindingMismatch):
		return ReasonBindingMismatch
	default:
		return ReasonSignatureInvalid
	}
}
