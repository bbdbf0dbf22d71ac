package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCount_JSON(t *testing.T) {
	known, err := json.Marshal(Pages(3))
	require.NoError(t, err)
	assert.Equal(t, "3", string(known))

	unknown, err := json.Marshal(UnknownPages)
	require.NoError(t, err)
	assert.Equal(t, `"Unknown"`, string(unknown))

	var p PageCount
	require.NoError(t, json.Unmarshal([]byte(`"Unknown"`), &p))
	assert.False(t, p.Known)
	assert.Error(t, json.Unmarshal([]byte(`"many"`), &p))
}

func TestMetadataRecord_NullDates(t *testing.T) {
	rec := NewMetadataRecord(MIMEPDF)
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "createdDate")
	assert.Nil(t, raw["createdDate"])
	assert.Nil(t, raw["modifiedDate"])
	assert.Equal(t, NotSpecified, raw["author"])
	assert.Equal(t, "Unknown", raw["pageCount"])
	assert.NotContains(t, raw, "producer")
}

func TestMIMEPredicates(t *testing.T) {
	assert.True(t, IsPDF(MIMEPDF))
	assert.True(t, IsWordDocument(MIMEDOCX))
	assert.True(t, IsWordDocument(MIMEDOC))
	assert.False(t, IsWordDocument(MIMEPDF))
	assert.True(t, IsImage("image/png"))
	assert.False(t, IsImage("text/plain"))
}
