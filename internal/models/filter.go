package models

// Kind identifies which of the four filter variants a Filter is.
type Kind int

const (
	KindBlocking Kind = iota
	KindWhitelist
	KindElementHide
	KindElementHideException
)

// Content-type bitmask; bit positions fixed by the source filter language
// so they can be compared directly against what the grammar parser hands in.
const (
	ContentOther            uint32 = 1
	ContentScript           uint32 = 2
	ContentImage            uint32 = 4
	ContentStylesheet       uint32 = 8
	ContentObject           uint32 = 16
	ContentSubdocument      uint32 = 32
	ContentDocument         uint32 = 64
	ContentWebSocket        uint32 = 128
	ContentWebRTC           uint32 = 256
	ContentPing             uint32 = 1024
	ContentXMLHTTPRequest   uint32 = 2048
	ContentObjectSubrequest uint32 = 4096
	ContentMedia            uint32 = 16384
	ContentFont             uint32 = 32768
	ContentPopup            uint32 = 0x10000000
	ContentGenericBlock     uint32 = 0x20000000
	ContentElemHide         uint32 = 0x40000000
	ContentGenericHide      uint32 = 0x80000000
)

// Filter is the core's input record: one classified filter handed over by
// the (external, out-of-scope) grammar parser. The compiler never mutates a
// Filter after addFilter consumes it.
type Filter struct {
	Kind Kind

	Pattern     string
	ContentType uint32
	MatchCase   bool
	ThirdParty  *bool // nil = any, true = third-party only, false = first-party only

	// Domains maps host -> include(true)/exclude(false). The empty-string
	// key, if present, expresses whether the filter applies when no include
	// entry matches.
	Domains map[string]bool

	Selector string

	// Sitekeys is opaque; any non-empty value disqualifies the filter (§7a).
	Sitekeys string

	// GenericBlock/GenericHide/ElemHide mark a whitelist filter's exception
	// options (e.g. $genericblock), set by the parser from the option
	// keywords; the parser does not put the matching marker bits into
	// ContentType.
	// They feed the Element-Hide Grouper's exception_domains union and the
	// Rule Emitter's generic-blocking exclusion propagation.
	GenericBlock bool
	GenericHide  bool
	ElemHide     bool
}

// HasSitekeys reports whether this filter must be silently dropped because
// it carries a constraint the target format cannot express.
func (f Filter) HasSitekeys() bool {
	return f.Sitekeys != ""
}

// IsNetwork reports whether this filter is a URL-trigger (blocking or
// whitelist) rather than a CSS element-hide variant.
func (f Filter) IsNetwork() bool {
	return f.Kind == KindBlocking || f.Kind == KindWhitelist
}
