package roster

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

const (
	LeetCodeDomain   = "leetcode.com"
	HackerRankDomain = "hackerrank.com"
)

// Username returns the trailing path segment of a profile link whose registrable domain
// is domain. The scheme may be omitted.
func Username(link, domain string) (string, bool) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", false
	}
	if !strings.Contains(link, "://") {
		link = "https://" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		registrable = host
	}
	if registrable != domain {
		return "", false
	}

	path := strings.Trim(u.Path, "/")
	if path == "" {
		return "", false
	}
	return path[strings.LastIndex(path, "/")+1:], true
}
