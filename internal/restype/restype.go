// Package restype projects a filter's content-type bitmask onto WebKit's
// fixed resource-type vocabulary and picks the URL-scheme prefix patterns a
// rule needs to cover it.
package restype

import "github.com/bnema/ublock-webkit-filters/internal/models"

// WebKit scheme prefix patterns, spliced into a lowered pattern's hostname
// anchor or prepended ahead of it (§4.1, §4.4).
const (
	SchemeHTTP     = `https?://`
	SchemeWS       = `wss?://`
	SchemeSTUN     = `stuns?:`
	SchemeTURN     = `turns?:`
	SchemeWildcard = `[^:]+:(//)?`
)

// allNetworkTypes is every content-type bit considered when mask == 0 (the
// filter carried no explicit $options, meaning "applies to all request
// types"). The three exception-marker bits are never content types in their
// own right and are excluded.
const allNetworkTypes = models.ContentOther | models.ContentScript | models.ContentImage |
	models.ContentStylesheet | models.ContentObject | models.ContentSubdocument |
	models.ContentDocument | models.ContentWebSocket | models.ContentWebRTC |
	models.ContentPing | models.ContentXMLHTTPRequest | models.ContentObjectSubrequest |
	models.ContentMedia | models.ContentFont | models.ContentPopup

// ResourceTypes projects mask onto the fixed target set, in the spec's
// canonical listing order: image, style-sheet, script, font, media, popup,
// raw, document.
func ResourceTypes(mask uint32) []string {
	if mask == 0 {
		mask = allNetworkTypes
	}

	var out []string
	if mask&models.ContentImage != 0 {
		out = append(out, models.ResourceImage)
	}
	if mask&models.ContentStylesheet != 0 {
		out = append(out, models.ResourceStyleSheet)
	}
	if mask&models.ContentScript != 0 {
		out = append(out, models.ResourceScript)
	}
	if mask&models.ContentFont != 0 {
		out = append(out, models.ResourceFont)
	}
	if mask&(models.ContentMedia|models.ContentObject) != 0 {
		out = append(out, models.ResourceMedia)
	}
	if mask&models.ContentPopup != 0 {
		out = append(out, models.ResourcePopup)
	}
	if mask&(models.ContentXMLHTTPRequest|models.ContentObjectSubrequest|models.ContentPing|
		models.ContentOther|models.ContentWebSocket|models.ContentWebRTC) != 0 {
		out = append(out, models.ResourceRaw)
	}
	if mask&models.ContentSubdocument != 0 {
		out = append(out, models.ResourceDocument)
	}
	return out
}

// Schemes returns the minimal set of scheme prefix patterns required to
// cover mask, in the order the emitter should emit one rule per entry: the
// primary scheme first, then any additional scheme families the
// multi-scheme split (§4.3) requires as separate rules.
func Schemes(mask uint32) []string {
	if mask == 0 {
		mask = allNetworkTypes
	}

	hasWS := mask&models.ContentWebSocket != 0
	hasRTC := mask&models.ContentWebRTC != 0
	httpMask := mask &^ (models.ContentWebSocket | models.ContentWebRTC |
		models.ContentGenericBlock | models.ContentElemHide | models.ContentGenericHide)
	hasHTTP := httpMask != 0

	if hasWS && hasRTC && hasHTTP {
		return []string{SchemeWildcard}
	}

	var out []string
	if hasWS {
		out = append(out, SchemeWS)
	}
	if hasRTC {
		out = append(out, SchemeSTUN, SchemeTURN)
	}
	if hasHTTP {
		out = append(out, SchemeHTTP)
	}
	if len(out) == 0 {
		out = append(out, SchemeHTTP)
	}
	return out
}
