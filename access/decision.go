package access

import (
	"context"
	"errors"
	"strings"

	"github.com/jonwraymond/docuapi/auth"
	"github.com/jonwraymond/docuapi/swaggerui"
)

// ErrNoAuthenticator is the fallback cause when a token arrives but no authenticator is set.
var ErrNoAuthenticator = errors.New("access: no authenticator configured")

// Policy holds the two configured membership lists.
type Policy struct {
	// RequestEnabled lists APIs whose docs allow live "try it out" calls.
	RequestEnabled []string

	// ElevatedMembers lists identities that receive the computed options.
	ElevatedMembers []string
}

// Variant names the option shape computed for a request.
type Variant string

const (
	// VariantInteractive: no token, request-enabled API.
	VariantInteractive Variant = "interactive"
	// VariantReadOnly: no token, API not request-enabled.
	VariantReadOnly Variant = "read_only"
	// VariantBearer: token, request-enabled API.
	VariantBearer Variant = "bearer"
	// VariantBearerReadOnly: token, API not request-enabled.
	VariantBearerReadOnly Variant = "bearer_read_only"
	// VariantFallback: option computation failed.
	VariantFallback Variant = "fallback"
)

// Dispatch names which options were handed to the renderer.
type Dispatch string

const (
	DispatchComputed Dispatch = "computed"
	DispatchDefault  Dispatch = "default"
)

// Request is the per-request input to a decision.
type Request struct {
	// APIID is the requested API identifier.
	APIID string

	// Credentials carries the request cookies, nil for an anonymous request.
	Credentials *auth.AuthRequest
}

// Decision is the outcome for one request.
type Decision struct {
	// Variant is the shape of Computed.
	Variant Variant

	// Dispatch says whether Options is Computed or the default.
	Dispatch Dispatch

	// Computed is the option shape from the decision table.
	Computed swaggerui.Options

	// Options is what the renderer receives.
	Options swaggerui.Options

	// Identity is the decoded token identity, nil without a usable token.
	Identity *auth.Identity

	// RequestEnabled reports whether the API is request-enabled.
	RequestEnabled bool

	// Elevated reports whether Identity is an elevated member.
	Elevated bool

	// Err is a *FallbackError when the safe options were substituted.
	Err error
}

// Principal returns the decoded principal, or "".
func (d Decision) Principal() string {
	if d.Identity == nil {
		return ""
	}
	return d.Identity.Principal
}

// Decider computes render options from the membership policy.
//
// Contract:
// - Concurrency: safe for concurrent use; the policy is immutable.
// - Errors: Decide never fails; failures are reported in Decision.Err.
type Decider struct {
	enabled       map[string]struct{}
	elevated      map[string]struct{}
	authenticator auth.Authenticator
}

// NewDecider creates a decider. authenticator may be nil when tokens are never expected.
func NewDecider(policy Policy, authenticator auth.Authenticator) *Decider {
	return &Decider{
		enabled:       toSet(policy.RequestEnabled),
		elevated:      toSet(policy.ElevatedMembers),
		authenticator: authenticator,
	}
}

// IsRequestEnabled reports whether apiID allows live requests.
func (d *Decider) IsRequestEnabled(apiID string) bool {
	_, ok := d.enabled[apiID]
	return ok
}

// IsElevated reports whether principal is an elevated member.
func (d *Decider) IsElevated(principal string) bool {
	if principal == "" {
		return false
	}
	_, ok := d.elevated[principal]
	return ok
}

// Decide computes the options for req and picks what to render.
//
// A sent cookie is always decoded, so an empty authToken falls back to the
// read-only options. Only a non-empty token selects the token-holder dispatch.
func (d *Decider) Decide(ctx context.Context, req Request) Decision {
	decision := Decision{
		RequestEnabled: d.IsRequestEnabled(req.APIID),
	}

	variant, computed, identity, token, err := d.compute(ctx, req, decision.RequestEnabled)
	if err != nil {
		variant = VariantFallback
		computed = ReadOnlyOptions()
		identity = nil
		decision.Err = &FallbackError{APIID: req.APIID, Cause: err}
	}

	decision.Variant = variant
	decision.Computed = computed
	decision.Identity = identity
	if identity != nil {
		decision.Elevated = d.IsElevated(identity.Principal)
	}

	switch {
	case token != "" && decision.Elevated:
		decision.Dispatch = DispatchComputed
		decision.Options = computed
	case token != "":
		decision.Dispatch = DispatchDefault
		decision.Options = swaggerui.Options{}
	default:
		decision.Dispatch = DispatchComputed
		decision.Options = computed
	}

	return decision
}

func (d *Decider) compute(ctx context.Context, req Request, enabled bool) (Variant, swaggerui.Options, *auth.Identity, string, error) {
	if !d.tokenSent(ctx, req) {
		if enabled {
			return VariantInteractive, swaggerui.Options{SwaggerOptions: &swaggerui.SwaggerOptions{}}, nil, "", nil
		}
		return VariantReadOnly, ReadOnlyOptions(), nil, "", nil
	}

	if d.authenticator == nil {
		token, _ := req.Credentials.Cookie(auth.CookieName)
		return "", swaggerui.Options{}, nil, token, ErrNoAuthenticator
	}
	result, err := d.authenticator.Authenticate(ctx, req.Credentials)
	if err != nil {
		return "", swaggerui.Options{}, nil, "", err
	}
	if !result.Authenticated {
		return "", swaggerui.Options{}, nil, result.Credential, result.Error
	}

	swaggerOptions := &swaggerui.SwaggerOptions{
		AuthAction: swaggerui.BearerAuthAction(result.Credential),
	}
	if enabled {
		return VariantBearer, swaggerui.Options{SwaggerOptions: swaggerOptions}, result.Identity, result.Credential, nil
	}
	swaggerOptions.CustomCSS = swaggerui.HideTryOutCSS
	return VariantBearerReadOnly, swaggerui.Options{SwaggerOptions: swaggerOptions}, result.Identity, result.Credential, nil
}

// tokenSent reports whether the identity cookie was sent, even empty.
func (d *Decider) tokenSent(ctx context.Context, req Request) bool {
	if req.Credentials == nil {
		return false
	}
	if d.authenticator == nil {
		_, ok := req.Credentials.Cookie(auth.CookieName)
		return ok
	}
	return d.authenticator.Supports(ctx, req.Credentials)
}

// ReadOnlyOptions hides the try-out control. It is also the fallback shape.
func ReadOnlyOptions() swaggerui.Options {
	return swaggerui.Options{CustomCSS: swaggerui.HideTryOutCSS}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
