package guard

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/beatplayr/backend/internal/logger"
)

// Path block reasons, one per matching stage for observability.
const (
	ReasonBlockedPath      = "blocked_path"
	ReasonBlockedWildcard  = "blocked_path_wildcard"
	ReasonSuspiciousRegex  = "suspicious_pattern"
	ReasonBlockedExtension = "blocked_extension"
)

// defaultBlockedPaths seeds the registry with admin panels, dotfiles,
// system files and well-known webshell names probed by scanners. Entries
// ending in "/*" block the prefix and everything under it.
var defaultBlockedPaths = []string{
	"/admin", "/admin/*",
	"/wp-admin", "/wp-admin/*",
	"/wp-login.php",
	"/phpmyadmin", "/phpMyAdmin",
	"/mysql", "/database",
	"/.env",
	"/.git", "/.git/*",
	"/config", "/config/*",
	"/backup", "/backup/*",
	"/uploads", "/uploads/*",
	"/etc/passwd", "/etc/shadow",
	"/proc/*", "/sys/*",
	"/shell.php", "/cmd.php", "/eval.php",
	"/c99.php", "/r57.php", "/webshell.php",
	"/.well-known/security.txt",
}

// defaultSuspiciousPatterns covers traversal sequences, null bytes, server
// internals, and SQL/script/RCE injection substrings. Insertion order is
// match order; the first hit is the reported pattern.
var defaultSuspiciousPatterns = []string{
	`\.\.`,
	`/\.\.`,
	"\x00",
	`%00`,
	`(?i)%2e%2e`,
	`(?i)/proc/`,
	`(?i)/etc/`,
	`(?i)select.*from`,
	`(?i)union.*select`,
	`(?i)script.*alert`,
	`(?i)<script`,
	`(?i)javascript:`,
	`(?i)vbscript:`,
	`(?i)onload=`,
	`(?i)onerror=`,
	`(?i)document\.cookie`,
	`(?i)base64_decode`,
	`(?i)eval\(`,
	`(?i)system\(`,
	`(?i)exec\(`,
	`(?i)passthru\(`,
	`(?i)shell_exec\(`,
}

var defaultBlockedExtensions = []string{
	".php", ".asp", ".aspx", ".jsp", ".cgi", ".pl", ".py", ".rb",
	".sh", ".bat", ".cmd", ".exe", ".com", ".scr", ".dll", ".so",
}

var defaultMethodRestrictions = map[string][]string{
	"/api/*":    {"GET", "POST", "OPTIONS"},
	"/health":   {"GET"},
	"/":         {"GET"},
	"/api-docs": {"GET"},
	"/docs":     {"GET"},
}

type suspiciousPattern struct {
	source string
	re     *regexp.Regexp
}

// PathVerdict is the result of a path check, carrying the reason code and
// the pattern that matched for forensic logging.
type PathVerdict struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

// PathRegistry holds the blocked-path set, suspicious regex list, blocked
// extension set and per-path method restrictions. Mutations from the admin
// surface take effect for all subsequent requests; a mutex guards the maps
// for concurrent gating passes.
type PathRegistry struct {
	mu           sync.RWMutex
	blockedPaths map[string]struct{}
	patterns     []suspiciousPattern
	extensions   map[string]struct{}
	methods      map[string][]string
}

// NewPathRegistry returns a registry seeded with the default deny lists.
func NewPathRegistry() *PathRegistry {
	r := &PathRegistry{
		blockedPaths: make(map[string]struct{}, len(defaultBlockedPaths)),
		patterns:     make([]suspiciousPattern, 0, len(defaultSuspiciousPatterns)),
		extensions:   make(map[string]struct{}, len(defaultBlockedExtensions)),
		methods:      make(map[string][]string, len(defaultMethodRestrictions)),
	}
	for _, p := range defaultBlockedPaths {
		r.blockedPaths[p] = struct{}{}
	}
	for _, src := range defaultSuspiciousPatterns {
		r.patterns = append(r.patterns, suspiciousPattern{source: src, re: regexp.MustCompile(src)})
	}
	for _, ext := range defaultBlockedExtensions {
		r.extensions[ext] = struct{}{}
	}
	for path, methods := range defaultMethodRestrictions {
		r.methods[path] = append([]string(nil), methods...)
	}
	return r
}

// Check evaluates a path against the registry. Stages run in fixed order
// (exact, wildcard, regex, extension) and the first match wins. Callers
// lowercase the path first; TestPath and the gate middleware both do.
func (r *PathRegistry) Check(path string) PathVerdict {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.blockedPaths[path]; ok {
		return PathVerdict{Blocked: true, Reason: ReasonBlockedPath, Pattern: path}
	}

	for blocked := range r.blockedPaths {
		if strings.HasSuffix(blocked, "/*") {
			if strings.HasPrefix(path, strings.TrimSuffix(blocked, "/*")) {
				return PathVerdict{Blocked: true, Reason: ReasonBlockedWildcard, Pattern: blocked}
			}
		}
	}

	for _, p := range r.patterns {
		if p.re.MatchString(path) {
			return PathVerdict{Blocked: true, Reason: ReasonSuspiciousRegex, Pattern: p.source}
		}
	}

	if idx := strings.LastIndex(path, "."); idx >= 0 {
		ext := "." + strings.ToLower(path[idx+1:])
		if _, ok := r.extensions[ext]; ok {
			return PathVerdict{Blocked: true, Reason: ReasonBlockedExtension, Pattern: ext}
		}
	}

	return PathVerdict{}
}

// MethodAllowed reports whether the (already uppercased) method may be used
// on the path. An exact restriction entry takes precedence over a wildcard
// one; a path with no matching entry allows any method.
func (r *PathRegistry) MethodAllowed(path, method string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if allowed, ok := r.methods[path]; ok {
		return containsMethod(allowed, method)
	}
	for pattern, allowed := range r.methods {
		if strings.HasSuffix(pattern, "/*") {
			if strings.HasPrefix(path, strings.TrimSuffix(pattern, "/*")) {
				return containsMethod(allowed, method)
			}
		}
	}
	return true
}

func containsMethod(allowed []string, method string) bool {
	for _, m := range allowed {
		if m == method {
			return true
		}
	}
	return false
}

// BlockPath adds a path (or "/*" wildcard entry) to the deny set.
// Re-blocking is a no-op that still succeeds.
func (r *PathRegistry) BlockPath(path string) {
	r.mu.Lock()
	r.blockedPaths[path] = struct{}{}
	r.mu.Unlock()

	logger.WithFields(map[string]interface{}{"path": path}).Info("Path added to blocked list")
}

// UnblockPath removes a path from the deny set; false when absent.
func (r *PathRegistry) UnblockPath(path string) bool {
	r.mu.Lock()
	_, ok := r.blockedPaths[path]
	delete(r.blockedPaths, path)
	r.mu.Unlock()

	if ok {
		logger.WithFields(map[string]interface{}{"path": path}).Info("Path removed from blocked list")
	}
	return ok
}

// BlockedPaths returns the deny set sorted for stable admin listings.
func (r *PathRegistry) BlockedPaths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.blockedPaths))
	for p := range r.blockedPaths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// AddPattern compiles and appends a suspicious regex. Patterns are matched
// case-insensitively like the seeded set. A malformed pattern is rejected
// without touching the list. Go's regexp engine runs in linear time, so an
// admin-supplied pattern cannot stall matching.
func (r *PathRegistry) AddPattern(pattern string) error {
	src := pattern
	if !strings.HasPrefix(src, "(?i)") {
		src = "(?i)" + src
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	r.mu.Lock()
	r.patterns = append(r.patterns, suspiciousPattern{source: src, re: re})
	r.mu.Unlock()

	logger.WithFields(map[string]interface{}{"pattern": pattern}).Info("Suspicious pattern added")
	return nil
}

// Patterns returns the regex sources in match order.
func (r *PathRegistry) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.patterns))
	for _, p := range r.patterns {
		out = append(out, p.source)
	}
	return out
}

func normalizeExtension(ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}

// BlockExtension adds a dotted, lowercased extension to the deny set.
func (r *PathRegistry) BlockExtension(ext string) {
	ext = normalizeExtension(ext)

	r.mu.Lock()
	r.extensions[ext] = struct{}{}
	r.mu.Unlock()

	logger.WithFields(map[string]interface{}{"extension": ext}).Info("File extension blocked")
}

// UnblockExtension removes an extension; false when absent.
func (r *PathRegistry) UnblockExtension(ext string) bool {
	ext = normalizeExtension(ext)

	r.mu.Lock()
	_, ok := r.extensions[ext]
	delete(r.extensions, ext)
	r.mu.Unlock()

	if ok {
		logger.WithFields(map[string]interface{}{"extension": ext}).Info("File extension unblocked")
	}
	return ok
}

// BlockedExtensions returns the extension deny set, sorted.
func (r *PathRegistry) BlockedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.extensions))
	for ext := range r.extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// SetMethodRestrictions replaces the allowed-method set for a path or
// wildcard entry. Methods are uppercased.
func (r *PathRegistry) SetMethodRestrictions(path string, methods []string) {
	upper := make([]string, 0, len(methods))
	for _, m := range methods {
		upper = append(upper, strings.ToUpper(m))
	}

	r.mu.Lock()
	r.methods[path] = upper
	r.mu.Unlock()

	logger.WithFields(map[string]interface{}{
		"path":    path,
		"methods": strings.Join(upper, ", "),
	}).Info("Method restrictions set")
}

// MethodRestrictions returns a copy of the restriction map.
func (r *PathRegistry) MethodRestrictions() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.methods))
	for path, methods := range r.methods {
		out[path] = append([]string(nil), methods...)
	}
	return out
}

// TestPath returns the verdict a live request to the path would receive,
// after the same case normalization the gate applies.
func (r *PathRegistry) TestPath(path string) PathVerdict {
	return r.Check(strings.ToLower(path))
}
