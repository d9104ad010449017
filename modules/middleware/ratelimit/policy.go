package ratelimit

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	rl "storefront/modules/ratelimit"
)

type (
	// Pattern is a ServeMux pattern without its method, e.g. "/v1/orders/{ref}".
	Pattern string

	// KeyFunc derives the limited identity (remote ip, subject) from a request.
	KeyFunc func(*http.Request) rl.Key

	// RouteInfoFunc resolves the route a request will be dispatched to.
	RouteInfoFunc func(*http.Request) RouteInfo

	RouteInfo struct {
		ID     Pattern
		Method string
		Path   string
	}

	Policy struct {
		Limiter rl.RateLimiter
		KeyFn   KeyFunc
	}

	// RuntimePolicy is the compiled form of RestHTTPConfig.
	RuntimePolicy struct {
		routes map[Pattern]map[string]Policy

		// fallbacks apply when a route has no rule for the method. A rule for
		// the method beats the catch-all stored under "".
		fallbacks map[string]Policy

		AllowIfNoMatch      bool
		AllowIfNoIdentifier bool
		RouteInfoFn         RouteInfoFunc
	}
)

// lookup returns the policy for info and whether it came from a route rule.
func (p *RuntimePolicy) lookup(info RouteInfo) (pol Policy, explicit, ok bool) {
	m := strings.ToUpper(info.Method)
	if pol, ok = p.routes[info.ID][m]; ok {
		return pol, true, true
	}
	if pol, ok = p.fallbacks[m]; ok && m != "" {
		return pol, false, true
	}
	pol, ok = p.fallbacks[""]
	return pol, false, ok
}

// ParsePolicy compiles cfg. Route patterns must match those registered on the
// mux behind routeFn.
func ParsePolicy(
	factory rl.LimiterFactory,
	cfg *RestHTTPConfig,
	routeFn RouteInfoFunc,
	keyStrategies map[KeyStrategyId]KeyFunc,
) (*RuntimePolicy, error) {
	p := &RuntimePolicy{
		routes:              map[Pattern]map[string]Policy{},
		fallbacks:           map[string]Policy{},
		AllowIfNoMatch:      cfg.AllowIfNoMatch,
		AllowIfNoIdentifier: cfg.AllowIfNoIdentifier,
		RouteInfoFn:         routeFn,
	}

	compile := func(rule EndpointRule) (Policy, error) {
		keyFn, ok := keyStrategies[rule.KeyStrategy]
		if !ok {
			return Policy{}, fmt.Errorf("ratelimit parse policy: no such key strategy %q", rule.KeyStrategy)
		}
		return Policy{Limiter: factory(rule.Limit, rule.Window), KeyFn: keyFn}, nil
	}

	// The default rule is optional and only counts once it has a window and a key strategy.
	if d := cfg.DefaultPolicy; d.Window > 0 && d.KeyStrategy != "" {
		pol, err := compile(d)
		if err != nil {
			return nil, errors.Join(errors.New("ratelimit parse policy: default rule"), err)
		}
		p.fallbacks[strings.ToUpper(d.Method)] = pol
	}

	for _, route := range cfg.Routes {
		pat := Pattern(route.Pattern)
		byMethod, ok := p.routes[pat]
		if !ok {
			byMethod = map[string]Policy{}
			p.routes[pat] = byMethod
		}
		for _, rule := range route.EndpointRules {
			m := strings.ToUpper(rule.Method)
			if _, dup := byMethod[m]; dup {
				return nil, fmt.Errorf("ratelimit parse policy: duplicate method %s on pattern %q", m, pat)
			}
			if rule.Window <= 0 {
				return nil, fmt.Errorf("ratelimit parse policy: window must be positive for %s %q", m, pat)
			}
			pol, err := compile(rule)
			if err != nil {
				return nil, err
			}
			byMethod[m] = pol
		}
	}
	return p, nil
}
