// Package i18n provides message translation with reverse lookup. The
// preference codec depends on the reverse direction: stored keys must be
// language-invariant no matter which display language produced them.
package i18n

import (
	"fmt"
)

// MsgID is a language-invariant message identifier. The identifier text
// doubles as the untranslated (base language) message.
type MsgID string

// Messages shown by the runner
const (
	MsgRunCanceled       MsgID = "workflow canceled"
	MsgHostClosing       MsgID = "host is closing, workflow canceled"
	MsgCompletedNoErrors MsgID = "workflow completed without errors"
	MsgStepTimeout       MsgID = "timeout waiting for %s"
	MsgNoSelection       MsgID = "no image selected, nothing to do"
	MsgUncleanLoad       MsgID = "image %s could not be loaded cleanly"
	MsgProcessingStep    MsgID = "processing %s"
	MsgJobLabel          MsgID = "initial workflow"
)

// Catalog maps message identifiers to one display language and back.
// The zero-value-like Default catalog translates every id to itself.
type Catalog struct {
	translations map[MsgID]string
	reverse      map[string]MsgID
}

// NewCatalog builds a catalog from an id-to-translation map. The reverse
// map is derived once here.
func NewCatalog(translations map[MsgID]string) *Catalog {
	c := &Catalog{
		translations: translations,
		reverse:      make(map[string]MsgID, len(translations)),
	}
	for id, text := range translations {
		c.reverse[text] = id
	}
	return c
}

// Default returns the identity catalog
func Default() *Catalog {
	return NewCatalog(nil)
}

// T returns the translation for id, or the id text itself when the
// catalog has none
func (c *Catalog) T(id MsgID) string {
	if text, ok := c.translations[id]; ok {
		return text
	}
	return string(id)
}

// Tf translates id and applies Sprintf-style arguments
func (c *Catalog) Tf(id MsgID, args ...interface{}) string {
	return fmt.Sprintf(c.T(id), args...)
}

// Reverse maps a translated string back to its identifier. Unknown
// strings map to themselves, so untranslated input passes through.
func (c *Catalog) Reverse(translated string) MsgID {
	if id, ok := c.reverse[translated]; ok {
		return id
	}
	return MsgID(translated)
}

// Untranslate returns the language-invariant form of a display string
func (c *Catalog) Untranslate(s string) string {
	return string(c.Reverse(s))
}
