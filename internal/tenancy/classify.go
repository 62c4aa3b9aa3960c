package tenancy

import (
	"net"
	"net/url"
	"strings"
)

// Mode classifies a request host into one of the three serving modes.
type Mode string

const (
	ModeRoot   Mode = "root"
	ModeAdmin  Mode = "admin"
	ModeTenant Mode = "tenant"
)

// previewPlatformSuffix is the multi-tenant preview platform all
// pre-production deployments are published under.
const previewPlatformSuffix = ".lovable.app"

// reservedSubdomains can never address a tenant on the preview platform;
// hosts carrying them fall back to root.
var reservedSubdomains = map[string]struct{}{
	"www":     {},
	"app":     {},
	"api":     {},
	"mail":    {},
	"assets":  {},
	"staging": {},
	"preview": {},
}

// localHosts are development hosts where the tenant is picked via query
// parameters instead of the host name.
var localHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"0.0.0.0":   {},
	"::1":       {},
}

// Classification is the derived, non-persisted outcome of host inspection.
type Classification struct {
	Mode      Mode
	Subdomain string
}

// Classifier derives a Classification from a host name and query string.
// Both configuration values are optional; rules depending on an unset value
// are skipped.
type Classifier struct {
	// BaseDomain is the production apex (e.g. "bibliotecai.com.br");
	// tenants live on subdomains of it.
	BaseDomain string
	// PreviewHost is the exact project host on the preview platform,
	// which always serves root.
	PreviewHost string
}

// Classify evaluates the classification rules in order, first match wins.
// The result is deterministic in (host, query).
func (c Classifier) Classify(host string, query url.Values) Classification {
	host = strings.ToLower(stripPort(host))

	if strings.HasPrefix(host, "admin.") {
		return Classification{Mode: ModeAdmin}
	}

	if _, ok := localHosts[host]; ok {
		if sub := strings.ToLower(strings.TrimSpace(query.Get("tenant"))); sub != "" {
			return Classification{Mode: ModeTenant, Subdomain: sub}
		}
		if query.Get("admin") == "1" {
			return Classification{Mode: ModeAdmin}
		}
		return Classification{Mode: ModeRoot}
	}

	if c.BaseDomain != "" && strings.HasSuffix(host, "."+c.BaseDomain) {
		prefix := strings.TrimSuffix(host, "."+c.BaseDomain)
		switch prefix {
		case "":
			return Classification{Mode: ModeRoot}
		case "admin":
			return Classification{Mode: ModeAdmin}
		default:
			return Classification{Mode: ModeTenant, Subdomain: prefix}
		}
	}

	if strings.HasSuffix(host, previewPlatformSuffix) {
		// Multi-part preview deployments (branch--project.platform.tld) and
		// the project host itself are never tenant hosts.
		if strings.Contains(host, "--") || host == c.PreviewHost {
			return Classification{Mode: ModeRoot}
		}

		labels := strings.Split(host, ".")
		if len(labels) < 4 {
			return Classification{Mode: ModeRoot}
		}

		first := labels[0]
		if first == "admin" {
			return Classification{Mode: ModeAdmin}
		}
		if _, reserved := reservedSubdomains[first]; !reserved {
			return Classification{Mode: ModeTenant, Subdomain: first}
		}
	}

	return Classification{Mode: ModeRoot}
}

// stripPort removes a trailing :port and IPv6 brackets, leaving bare hosts
// untouched.
func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}
