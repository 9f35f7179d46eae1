package domain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURI_RoundTrip(t *testing.T) {
	f := ImageFile{Name: "a.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}

	back, err := ParseDataURI("a.png", f.DataURI())
	require.NoError(t, err)
	assert.Equal(t, f, back)
}

func TestParseDataURI_Rejects(t *testing.T) {
	for _, uri := range []string{"http://x/y.png", "data:image/png,plain", "data:image/png;base64", "data:image/png;base64,!!!"} {
		_, err := ParseDataURI("x", uri)
		assert.ErrorIs(t, err, ErrInvalidInput, uri)
	}
}

func TestCheckImage(t *testing.T) {
	assert.Nil(t, CheckImage(ImageFile{Name: "ok.jpg", ContentType: "image/jpeg", Data: []byte{1}}))

	big := ImageFile{Name: "big.jpg", ContentType: "image/jpeg", Data: bytes.Repeat([]byte{1}, MaxImageBytes+1)}
	require.NotNil(t, CheckImage(big))
	assert.Equal(t, "big.jpg", CheckImage(big).Name)

	assert.NotNil(t, CheckImage(ImageFile{Name: "doc.pdf", ContentType: "application/pdf", Data: []byte{1}}))
}
