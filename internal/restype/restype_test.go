package restype

import (
	"testing"

	"github.com/bnema/ublock-webkit-filters/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestResourceTypesZeroMaskMeansAllNetworkTypes(t *testing.T) {
	out := ResourceTypes(0)
	assert.Equal(t, []string{"image", "style-sheet", "script", "font", "media", "popup", "raw", "document"}, out)
}

func TestResourceTypesImageOnly(t *testing.T) {
	out := ResourceTypes(models.ContentImage)
	assert.Equal(t, []string{"image"}, out)
}

func TestResourceTypesObjectMapsToMedia(t *testing.T) {
	out := ResourceTypes(models.ContentObject)
	assert.Equal(t, []string{"media"}, out)
}

func TestResourceTypesRawBucket(t *testing.T) {
	for _, bit := range []uint32{
		models.ContentXMLHTTPRequest, models.ContentObjectSubrequest,
		models.ContentPing, models.ContentOther,
		models.ContentWebSocket, models.ContentWebRTC,
	} {
		assert.Equal(t, []string{"raw"}, ResourceTypes(bit))
	}
}

func TestResourceTypesOrdering(t *testing.T) {
	mask := models.ContentSubdocument | models.ContentScript | models.ContentImage
	out := ResourceTypes(mask)
	assert.Equal(t, []string{"image", "script", "document"}, out)
}

func TestSchemesHTTPOnly(t *testing.T) {
	assert.Equal(t, []string{SchemeHTTP}, Schemes(models.ContentScript))
}

func TestSchemesWebSocketOnly(t *testing.T) {
	assert.Equal(t, []string{SchemeWS}, Schemes(models.ContentWebSocket))
}

func TestSchemesWebRTCOnly(t *testing.T) {
	assert.Equal(t, []string{SchemeSTUN, SchemeTURN}, Schemes(models.ContentWebRTC))
}

func TestSchemesAllThreeCollapseToWildcard(t *testing.T) {
	mask := models.ContentWebSocket | models.ContentWebRTC | models.ContentScript
	assert.Equal(t, []string{SchemeWildcard}, Schemes(mask))
}

func TestSchemesWebSocketPlusHTTPNeedsSplit(t *testing.T) {
	mask := models.ContentWebSocket | models.ContentScript
	assert.ElementsMatch(t, []string{SchemeWS, SchemeHTTP}, Schemes(mask))
}
