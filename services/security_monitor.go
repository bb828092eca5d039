package services

import (
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const maxLoggedSample = 200

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(union\s+(all\s+)?select|insert\s+into|delete\s+from|drop\s+(table|database)|truncate\s+table|alter\s+table|xp_cmdshell)\b`),
	regexp.MustCompile(`(?i)\bselect\s+[\w\s,*]+\s+from\b`),
	regexp.MustCompile(`(?i)'\s*(or|and)\s+'?\d+'?\s*=\s*'?\d+`),
	regexp.MustCompile(`(?i)(;|')\s*--`),
	regexp.MustCompile(`(?i)<\s*/?\s*script`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)vbscript\s*:`),
	regexp.MustCompile(`(?i)\bon(load|error|click|mouseover|focus)\s*=`),
	regexp.MustCompile(`(?i)\beval\s*\(`),
	regexp.MustCompile(`(?i)\bexpression\s*\(`),
}

var (
	botAgentPattern     = regexp.MustCompile(`(?i)(bot|crawler|spider|scraper|scrapy|curl|wget|python-requests|httpclient|go-http-client|headless)`)
	allowedAgentPattern = regexp.MustCompile(`(?i)(googlebot|bingbot|duckduckbot|yandexbot|baiduspider|slurp)`)
)

const (
	FindingSuspiciousPattern = "suspicious_pattern"
	FindingBotUserAgent      = "bot_user_agent"
)

// InspectedRequest is the part of a request the monitor looks at.
type InspectedRequest struct {
	Method    string
	Path      string
	Body      string
	UserAgent string
	ClientIP  string
}

type SecurityFinding struct {
	Kind   string `json:"kind"`
	Sample string `json:"sample"`
}

// SecurityMonitor flags likely injection attempts and non-browser clients.
// It only logs and counts; it never decides whether a request is served.
type SecurityMonitor struct {
	logger  *zap.Logger
	metrics *MetricsAggregator
}

func NewSecurityMonitor(logger *zap.Logger, metrics *MetricsAggregator) *SecurityMonitor {
	return &SecurityMonitor{logger: logger, metrics: metrics}
}

func (s *SecurityMonitor) Inspect(req InspectedRequest) []SecurityFinding {
	var findings []SecurityFinding

	subject := unescape(req.Path)
	if req.Body != "" {
		subject += " " + req.Body
	}
	for _, p := range suspiciousPatterns {
		if p.MatchString(subject) {
			sample := truncate(subject, maxLoggedSample)
			findings = append(findings, SecurityFinding{Kind: FindingSuspiciousPattern, Sample: sample})
			if s.metrics != nil {
				s.metrics.RecordSuspiciousRequest()
			}
			s.logger.Warn("suspicious request detected",
				zap.String("security_event", FindingSuspiciousPattern),
				zap.String("ip", req.ClientIP),
				zap.String("method", req.Method),
				zap.String("sample", sample),
			)
			break
		}
	}

	if ua := req.UserAgent; ua != "" && botAgentPattern.MatchString(ua) && !allowedAgentPattern.MatchString(ua) {
		findings = append(findings, SecurityFinding{Kind: FindingBotUserAgent, Sample: truncate(ua, maxLoggedSample)})
		s.logger.Warn("automated client detected",
			zap.String("security_event", FindingBotUserAgent),
			zap.String("ip", req.ClientIP),
			zap.String("user_agent", truncate(ua, maxLoggedSample)),
		)
	}

	return findings
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ShouldInspectBody reports whether a content type carries a textual body.
func ShouldInspectBody(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "json") || strings.Contains(ct, "form") || strings.HasPrefix(ct, "text/")
}
