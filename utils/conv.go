package utils

import (
	"bytes"

	"github.com/pkg/errors"
	"golang.org/x/text/transform"

	"github.com/mogaika/overgrowth_browser/config"
)

// LegacyBytesToString decodes names written by old tools that used the
// system codepage instead of UTF-8. Trailing zero padding is dropped.
func LegacyBytesToString(bs []byte) (string, error) {
	n := bytes.IndexByte(bs, 0)
	if n < 0 {
		n = len(bs)
	}

	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs[0:n])
	if err != nil {
		return "", errors.Wrapf(err, "Failed to decode string with %v", config.GetEncoding())
	}

	return string(s), nil
}

// StringToLegacyBytes is the inverse of LegacyBytesToString.
func StringToLegacyBytes(s string) ([]byte, error) {
	bs, _, err := transform.Bytes(config.GetEncoding().NewEncoder(), []byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to encode %q with %v", s, config.GetEncoding())
	}
	return bs, nil
}
