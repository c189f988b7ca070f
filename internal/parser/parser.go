// Package parser reads ABP/uBlock Origin filter-list text into the core
// compiler's models.Filter records. It is the "external collaborator" the
// compiler's invariants describe: syntax errors are resolved here and never
// reach the core, and the two rejection rules the core also re-checks for
// itself ($sitekey, empty pattern) are applied here first as a fast path.
package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/bnema/ublock-webkit-filters/internal/models"
)

// Stats tracks how a Parse call's input lines were classified.
type Stats struct {
	Total       int
	Network     int
	Exception   int
	Cosmetic    int
	Comments    int
	Unsupported int
	SkipReasons map[string]int
}

// Skip reason labels, kept as exported constants so callers reporting
// diagnostics don't have to guess the exact wording.
const (
	SkipScriptlet         = "scriptlet (##+js)"
	SkipHTMLFilter        = "html-filter (##^)"
	SkipProcedural        = "procedural (:has, :xpath, etc)"
	SkipUnsupportedOpt    = "unsupported-option (redirect, csp, etc)"
	SkipSitekey           = "sitekey"
	SkipEmptyPattern      = "empty-pattern"
	SkipCosmeticException = "cosmetic-exception selector reused as exception"
)

// Parser parses ABP/uBlock filter lists into models.Filter records.
type Parser struct {
	stats Stats
}

func New() *Parser {
	return &Parser{stats: Stats{SkipReasons: make(map[string]int)}}
}

func (p *Parser) Stats() Stats { return p.stats }

type lineKind int

const (
	lineComment lineKind = iota
	lineSkipped
	lineFilter
)

// Parse reads filter content line by line and returns the classified,
// core-ready filters. Lines that are comments or fall outside what the
// target format can express are dropped here rather than passed through.
func (p *Parser) Parse(r io.Reader) ([]models.Filter, error) {
	var filters []models.Filter
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		p.stats.Total++

		f, kind, reason := p.parseLine(line)
		switch kind {
		case lineComment:
			p.stats.Comments++
			continue
		case lineSkipped:
			p.stats.Unsupported++
			p.stats.SkipReasons[reason]++
			continue
		}

		switch f.Kind {
		case models.KindBlocking:
			p.stats.Network++
		case models.KindWhitelist:
			p.stats.Exception++
		case models.KindElementHide, models.KindElementHideException:
			p.stats.Cosmetic++
		}
		filters = append(filters, f)
	}

	return filters, scanner.Err()
}

func (p *Parser) parseLine(line string) (models.Filter, lineKind, string) {
	if strings.HasPrefix(line, "!") || strings.HasPrefix(line, "[") {
		return models.Filter{}, lineComment, ""
	}

	if strings.Contains(line, "##+js(") || strings.Contains(line, "#@#+js(") {
		return models.Filter{}, lineSkipped, SkipScriptlet
	}
	if strings.Contains(line, "##^") || strings.Contains(line, "#@#^") {
		return models.Filter{}, lineSkipped, SkipHTMLFilter
	}
	if containsProcedural(line) {
		return models.Filter{}, lineSkipped, SkipProcedural
	}
	if strings.Contains(line, "#?#") || strings.Contains(line, "#@?#") {
		return models.Filter{}, lineSkipped, SkipProcedural
	}

	if idx := strings.Index(line, "#@#"); idx != -1 {
		return parseCosmetic(line, idx, true), lineFilter, ""
	}
	if idx := strings.Index(line, "##"); idx != -1 {
		return parseCosmetic(line, idx, false), lineFilter, ""
	}

	isException := strings.HasPrefix(line, "@@")
	body := line
	if isException {
		body = line[2:]
	}
	return p.parseNetwork(body, isException)
}

func containsProcedural(line string) bool {
	procedural := []string{
		":has(", ":has-text(", ":xpath(", ":matches-css(",
		":matches-attr(", ":min-text-length(", ":not(",
		":upward(", ":remove(", ":style(",
	}
	for _, m := range procedural {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

func parseCosmetic(line string, sepIdx int, isException bool) models.Filter {
	separator := "##"
	kind := models.KindElementHide
	if isException {
		separator = "#@#"
		kind = models.KindElementHideException
	}

	domains := make(map[string]bool)
	if sepIdx > 0 {
		for host, include := range parseDomainOption(line[:sepIdx]) {
			domains[host] = include
		}
	}

	return models.Filter{
		Kind:     kind,
		Selector: line[sepIdx+len(separator):],
		Domains:  domains,
	}
}

func (p *Parser) parseNetwork(line string, isException bool) (models.Filter, lineKind, string) {
	kind := models.KindBlocking
	if isException {
		kind = models.KindWhitelist
	}

	pattern := line
	var contentType uint32
	var matchCase bool
	var thirdParty *bool
	var sitekeys string
	domains := make(map[string]bool)
	var genericBlock, genericHide, elemHide bool

	if idx := strings.LastIndex(line, "$"); idx != -1 && (idx == 0 || line[idx-1] != '\\') {
		optPart := line[idx+1:]
		if !strings.HasPrefix(optPart, "/") {
			pattern = line[:idx]
			if hasUnsupportedOptions(optPart) {
				return models.Filter{}, lineSkipped, SkipUnsupportedOpt
			}
			contentType, matchCase, thirdParty, sitekeys, genericBlock, genericHide, elemHide = parseOptions(optPart, domains)
		}
	}

	if sitekeys != "" {
		return models.Filter{}, lineSkipped, SkipSitekey
	}
	if pattern == "" {
		return models.Filter{}, lineSkipped, SkipEmptyPattern
	}

	return models.Filter{
		Kind:         kind,
		Pattern:      pattern,
		ContentType:  contentType,
		MatchCase:    matchCase,
		ThirdParty:   thirdParty,
		Domains:      domains,
		Sitekeys:     sitekeys,
		GenericBlock: genericBlock,
		GenericHide:  genericHide,
		ElemHide:     elemHide,
	}, lineFilter, ""
}

// parseDomainOption parses a "##" prefix or "domain=" option value into a
// host -> include(true)/exclude(false) map, "~" marking exclusion.
func parseDomainOption(s string) map[string]bool {
	out := make(map[string]bool)
	for _, d := range strings.Split(s, ",") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if strings.HasPrefix(d, "~") {
			out[d[1:]] = false
		} else {
			out[d] = true
		}
	}
	return out
}

func parseDomainPipeList(s string, domains map[string]bool) {
	for _, d := range strings.Split(s, "|") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if strings.HasPrefix(d, "~") {
			domains[d[1:]] = false
		} else {
			domains[d] = true
		}
	}
}

func parseOptions(s string, domains map[string]bool) (contentType uint32, matchCase bool, thirdParty *bool, sitekeys string, genericBlock, genericHide, elemHide bool) {
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		switch {
		case part == "third-party" || part == "3p":
			t := true
			thirdParty = &t
		case part == "~third-party" || part == "~3p" || part == "first-party" || part == "1p":
			f := false
			thirdParty = &f
		case part == "match-case":
			matchCase = true
		case part == "important":
			// No dedicated field: importance only affects which of several
			// matching filters the source engine would have honored, a
			// distinction the target format has no equivalent for.
		case part == "genericblock":
			genericBlock = true
		case part == "generichide":
			genericHide = true
		case part == "elemhide":
			elemHide = true
		case strings.HasPrefix(part, "domain="):
			parseDomainPipeList(part[len("domain="):], domains)
		case strings.HasPrefix(part, "sitekey="):
			sitekeys = part[len("sitekey="):]
		default:
			if bit, ok := resourceTypeBit(part); ok {
				if strings.HasPrefix(part, "~") {
					// Negated resource types narrow the default set; the
					// core's zero-mask-means-all-types convention can't
					// express that precisely, so treat the positive set as
					// everything bar the excluded bit.
					if contentType == 0 {
						contentType = allResourceBits
					}
					contentType &^= bit
				} else {
					contentType |= bit
				}
			}
		}
	}
	return
}

const allResourceBits = models.ContentOther | models.ContentScript | models.ContentImage |
	models.ContentStylesheet | models.ContentObject | models.ContentSubdocument |
	models.ContentDocument | models.ContentWebSocket | models.ContentWebRTC |
	models.ContentPing | models.ContentXMLHTTPRequest | models.ContentObjectSubrequest |
	models.ContentMedia | models.ContentFont | models.ContentPopup

func resourceTypeBit(part string) (uint32, bool) {
	name := strings.TrimPrefix(part, "~")
	switch name {
	case "script":
		return models.ContentScript, true
	case "image", "img":
		return models.ContentImage, true
	case "stylesheet", "css":
		return models.ContentStylesheet, true
	case "object":
		return models.ContentObject, true
	case "object-subrequest":
		return models.ContentObjectSubrequest, true
	case "subdocument", "frame":
		return models.ContentSubdocument, true
	case "document", "doc":
		return models.ContentDocument, true
	case "websocket":
		return models.ContentWebSocket, true
	case "webrtc":
		return models.ContentWebRTC, true
	case "ping", "beacon":
		return models.ContentPing, true
	case "xmlhttprequest", "xhr":
		return models.ContentXMLHTTPRequest, true
	case "media":
		return models.ContentMedia, true
	case "font":
		return models.ContentFont, true
	case "popup":
		return models.ContentPopup, true
	case "other":
		return models.ContentOther, true
	}
	return 0, false
}

func hasUnsupportedOptions(s string) bool {
	unsupported := []string{
		"redirect=", "redirect-rule=",
		"csp=", "removeparam=", "replace=",
		"header=", "method=", "to=",
		"permissions=", "uritransform=",
	}
	for _, u := range unsupported {
		if strings.Contains(s, u) {
			return true
		}
	}
	return false
}
