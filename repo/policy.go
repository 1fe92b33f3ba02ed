package repo

import (
	"encoding/xml"
	"fmt"

	"github.com/Atsuko87/ccnx-sub001/name"
)

// policyXML is the on-disk shape of <repo-data>/policy.xml, per §6:
// elements Version, LocalName, GlobalPrefix, Namespace/URI+.
type policyXML struct {
	XMLName      xml.Name `xml:"Policy"`
	Version      int      `xml:"Version"`
	LocalName    string   `xml:"LocalName"`
	GlobalPrefix string   `xml:"GlobalPrefix"`
	Namespaces   []string `xml:"Namespace>URI"`
}

// Policy is the admission predicate controlling what the repository will
// persist, per §4.9: "an XML-like document enumerating { allowed_prefixes:
// set<Name>, global_prefix: Name, local_name: Name, version: integer }".
type Policy struct {
	Version         int
	LocalName       name.Name
	GlobalPrefix    name.Name
	AllowedPrefixes []name.Name
}

// ParsePolicy decodes a policy.xml document.
func ParsePolicy(data []byte) (*Policy, error) {
	var doc policyXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("repo: malformed policy document: %w", err)
	}

	localName, err := name.FromURI(doc.LocalName)
	if err != nil {
		return nil, fmt.Errorf("repo: bad LocalName: %w", err)
	}
	globalPrefix, err := name.FromURI(doc.GlobalPrefix)
	if err != nil {
		return nil, fmt.Errorf("repo: bad GlobalPrefix: %w", err)
	}
	allowed := make([]name.Name, 0, len(doc.Namespaces))
	for _, uri := range doc.Namespaces {
		n, err := name.FromURI(uri)
		if err != nil {
			return nil, fmt.Errorf("repo: bad Namespace URI %q: %w", uri, err)
		}
		allowed = append(allowed, n)
	}

	return &Policy{
		Version:         doc.Version,
		LocalName:       localName,
		GlobalPrefix:    globalPrefix,
		AllowedPrefixes: allowed,
	}, nil
}

// Encode serializes the policy back to its XML form, for the durable
// write-before-apply step of set_policy.
func (p *Policy) Encode() ([]byte, error) {
	doc := policyXML{
		Version:      p.Version,
		LocalName:    p.LocalName.String(),
		GlobalPrefix: p.GlobalPrefix.String(),
	}
	for _, n := range p.AllowedPrefixes {
		doc.Namespaces = append(doc.Namespaces, n.String())
	}
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// Allows reports whether n falls under the configured namespace, per
// save_content's admission test.
func (p *Policy) Allows(n name.Name) bool {
	for _, prefix := range p.AllowedPrefixes {
		if prefix.IsPrefixOf(n) {
			return true
		}
	}
	return false
}

// Supersedes reports whether p's version strictly exceeds current's, the
// sole acceptance test for a signed policy update (§4.9).
func (p *Policy) Supersedes(current *Policy) bool {
	return p.Version > current.Version
}
