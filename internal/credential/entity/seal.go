package entity

import (
	"regexp"
	"strings"
)

// Accepts "KELLEY-SEAL:<id>" as well as the longer "Kelley Seal ... id: <id>" form.
var sealPattern = regexp.MustCompile(`(?i)kelley[\s-]+seal[^:]*:\s*([a-z0-9]+)`)

// DetectSeal returns the seal id carried by label, if any.
func DetectSeal(label string) (string, bool) {
	m := sealPattern.FindStringSubmatch(label)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// ApplySeal marks c as high privilege when its label carries a seal.
func (c *Credential) ApplySeal() bool {
	id, ok := DetectSeal(c.Metadata.Label)
	if !ok {
		return false
	}
	c.SecurityFlags.IsHighPrivilege = true
	if c.KelleyAttributes == nil {
		c.KelleyAttributes = map[string]any{}
	}
	c.KelleyAttributes["seal_id"] = id
	return true
}
