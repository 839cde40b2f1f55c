package schema

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/zefrenchwan/egonet.git/elements"
)

// PropertyStore is the part of a storage transaction declarations live in
type PropertyStore interface {
	// Property returns the value of a property, false if it does not exist
	Property(name string) (string, bool, error)
	// SetProperty creates or replaces a property
	SetProperty(name, value string) error
	// DeleteProperty removes a property, if any
	DeleteProperty(name string) error
	// Properties returns all properties whose name starts with prefix
	Properties(prefix string) (map[string]string, error)
}

// Catalog reads and writes attribute declarations as json properties
type Catalog struct {
	properties PropertyStore
}

// NewCatalog returns a catalog over properties
func NewCatalog(properties PropertyStore) Catalog {
	return Catalog{properties: properties}
}

// domainPrefix is the prefix of properties declaring attributes of domain
func domainPrefix(domain elements.Domain) string {
	return "attribute/" + domain.String() + "/"
}

// propertyName is the name of the property that declares an attribute
func propertyName(domain elements.Domain, name string) string {
	return domainPrefix(domain) + name
}

// Find returns the declaration of an attribute, false if not declared
func (c Catalog) Find(domain elements.Domain, name string) (Attribute, bool, error) {
	var result Attribute
	raw, found, err := c.properties.Property(propertyName(domain, name))
	if err != nil || !found {
		return result, false, err
	}

	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return result, false, errors.Wrapf(err, "corrupted declaration of %s", name)
	}

	return result, true, nil
}

// Save stores a declaration, replacing any previous one
func (c Catalog) Save(attribute Attribute) error {
	if err := attribute.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(attribute.Normalize())
	if err != nil {
		return errors.Wrap(err, "cannot serialize declaration")
	}

	return c.properties.SetProperty(propertyName(attribute.Domain, attribute.Name), string(raw))
}

// Delete removes a declaration
func (c Catalog) Delete(domain elements.Domain, name string) error {
	return c.properties.DeleteProperty(propertyName(domain, name))
}

// List returns declarations of a domain, sorted by name
func (c Catalog) List(domain elements.Domain) ([]Attribute, error) {
	raws, err := c.properties.Properties(domainPrefix(domain))
	if err != nil {
		return nil, err
	}

	result := make([]Attribute, 0, len(raws))
	for name, raw := range raws {
		var attribute Attribute
		if err := json.Unmarshal([]byte(raw), &attribute); err != nil {
			return nil, errors.Wrapf(err, "corrupted declaration %s", name)
		}

		result = append(result, attribute)
	}

	slices.SortFunc(result, func(a, b Attribute) int {
		return strings.Compare(a.Name, b.Name)
	})

	return result, nil
}

// Names returns the sorted names of the attributes of a domain
func (c Catalog) Names(domain elements.Domain) ([]string, error) {
	attributes, err := c.List(domain)
	if err != nil {
		return nil, err
	}

	result := make([]string, 0, len(attributes))
	for _, attribute := range attributes {
		result = append(result, attribute.Name)
	}

	return result, nil
}
