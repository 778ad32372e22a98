package config

import (
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// Codepage used by legacy tools for bone, event and IK names.
var currentCharMap *charmap.Charmap = charmap.Windows1252

func SetEncoding(name string) error {
	if cm := findCharmap(name); cm != nil {
		currentCharMap = cm
		return nil
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func findCharmap(name string) *charmap.Charmap {
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok && cm.String() == name {
			return cm
		}
	}
	return nil
}

func ListEncodings() []string {
	list := make([]string, 0)
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

func GetEncoding() *charmap.Charmap {
	return currentCharMap
}
