package classify

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Platform labels attached to verdicts. "generic" covers signals that are
// not tied to a known checkout provider.
const (
	PlatformHotmart = "hotmart"
	PlatformEduzz   = "eduzz"
	PlatformGeneric = "generic"
)

// urlRule matches a final (post-redirect) URL that signals a withdrawn offer.
type urlRule struct {
	re       *regexp.Regexp
	platform string
	reason   string
}

// phraseRule matches a literal phrase in the response body, case-insensitive.
type phraseRule struct {
	phrase   string
	platform string
	reason   string
}

// RuleSet holds the classification tables. Rules are ordered; the first
// match wins. A RuleSet is immutable after construction and safe for
// concurrent use.
type RuleSet struct {
	urlRules    []urlRule
	bodyPhrases []phraseRule

	// Hotmart short-body heuristic: a Hotmart page smaller than
	// shortBodyLimit bytes with no checkout-form markers is treated as an
	// error page even when no known phrase matched.
	shortBodyLimit int
}

// ruleFile is the on-disk YAML shape of a RuleSet.
type ruleFile struct {
	URLPatterns []struct {
		Pattern  string `yaml:"pattern"`
		Platform string `yaml:"platform"`
		Reason   string `yaml:"reason"`
	} `yaml:"url_patterns"`
	BodyPhrases []struct {
		Phrase   string `yaml:"phrase"`
		Platform string `yaml:"platform"`
		Reason   string `yaml:"reason"`
	} `yaml:"body_phrases"`
	ShortBodyLimit int `yaml:"short_body_limit"`
}

const defaultShortBodyLimit = 15000

// hotmartURLPatterns are the primary inactive signals: the provider's error
// redirect plus generic unavailability tokens on its domains.
var hotmartURLPatterns = []string{
	`pay\.hotmart\.com/error`,
	`hotmart\.com/error\?`,
	`errorMessage=`,
	`hotmart\.com.*(unavailable|closed|expired|encerrad|indisponivel)`,
}

var eduzzURLPatterns = []string{
	`eduzz\.com.*(unavailable|closed|expired|encerrad|indisponivel|not.?found|404)`,
	`mono\.eduzz\.com.*(unavailable|closed|expired)`,
}

// hotmartBodyPhrases appear on "offer ended" pages in Portuguese and English.
var hotmartBodyPhrases = []string{
	"vendas deste produto estão temporariamente encerradas",
	"vendas deste produto estao temporariamente encerradas",
	"agradecemos o interesse, mas as vendas",
	"ofertas encerradas",
	"oferta encerrada",
	"checkout indisponível",
	"checkout indisponivel",
	"produto indisponível",
	"produto indisponivel",
	"esta oferta não está disponível",
	"esta oferta nao esta disponivel",
	"link expirado",
	"promoção encerrada",
	"promocao encerrada",
	"sales of this product are temporarily closed",
	"thank you for your interest, but sales",
	"product is not available",
	"offer closed",
	"offer is closed",
	"this offer is not available",
	"checkout unavailable",
	"expired link",
}

var genericErrorPhrases = []string{
	"página não encontrada",
	"pagina nao encontrada",
	"page not found",
	"404 not found",
	"erro 404",
	"error 404",
	"não foi possível encontrar",
	"nao foi possivel encontrar",
}

// DefaultRules returns the compiled-in rule tables.
func DefaultRules() *RuleSet {
	rs := &RuleSet{shortBodyLimit: defaultShortBodyLimit}

	for _, p := range hotmartURLPatterns {
		rs.urlRules = append(rs.urlRules, urlRule{
			re:       regexp.MustCompile(`(?i)` + p),
			platform: PlatformHotmart,
			reason:   "Hotmart checkout inactive (error URL)",
		})
	}
	for _, p := range eduzzURLPatterns {
		rs.urlRules = append(rs.urlRules, urlRule{
			re:       regexp.MustCompile(`(?i)` + p),
			platform: PlatformEduzz,
			reason:   "Eduzz checkout inactive",
		})
	}

	for _, p := range hotmartBodyPhrases {
		rs.bodyPhrases = append(rs.bodyPhrases, phraseRule{
			phrase:   p,
			platform: PlatformHotmart,
			reason:   "Hotmart offer closed",
		})
	}
	for _, p := range genericErrorPhrases {
		rs.bodyPhrases = append(rs.bodyPhrases, phraseRule{
			phrase:   p,
			platform: PlatformGeneric,
			reason:   "page not found",
		})
	}

	return rs
}

// LoadRules reads a rule file and compiles it into a RuleSet. Patterns are
// compiled case-insensitive. Entries without a reason get a per-platform
// default so operators can keep the file terse.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	rs := &RuleSet{shortBodyLimit: file.ShortBodyLimit}
	if rs.shortBodyLimit <= 0 {
		rs.shortBodyLimit = defaultShortBodyLimit
	}

	for i, entry := range file.URLPatterns {
		re, err := regexp.Compile(`(?i)` + entry.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid url pattern %d (%q): %w", i, entry.Pattern, err)
		}
		rs.urlRules = append(rs.urlRules, urlRule{
			re:       re,
			platform: platformOrGeneric(entry.Platform),
			reason:   reasonOrDefault(entry.Reason, entry.Platform),
		})
	}

	for _, entry := range file.BodyPhrases {
		if entry.Phrase == "" {
			continue
		}
		rs.bodyPhrases = append(rs.bodyPhrases, phraseRule{
			phrase:   entry.Phrase,
			platform: platformOrGeneric(entry.Platform),
			reason:   reasonOrDefault(entry.Reason, entry.Platform),
		})
	}

	return rs, nil
}

func platformOrGeneric(p string) string {
	if p == "" {
		return PlatformGeneric
	}
	return p
}

func reasonOrDefault(reason, platform string) string {
	if reason != "" {
		return reason
	}
	if platform == "" {
		platform = PlatformGeneric
	}
	return fmt.Sprintf("%s offer inactive", platform)
}
