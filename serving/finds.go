package serving

import (
	"net/http"

	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/versioned"
)

// ValueDTO is the value of an attribute at a moment
type ValueDTO struct {
	Element ElementDTO `json:"element"`
	Value   string     `json:"value"`
	DatumID int64      `json:"datumId,omitempty"`
	Found   bool       `json:"found"`
}

// HistoryDTO is the history of an attribute for an element
type HistoryDTO struct {
	Element   ElementDTO      `json:"element"`
	Attribute string          `json:"attribute"`
	Values    []TimedValueDTO `json:"values"`
}

// DeserializeDomainFromURL returns the domain of the request, or a 400 error
func DeserializeDomainFromURL(r *http.Request) (elements.Domain, error) {
	domain, err := elements.ParseDomain(r.PathValue("domain"))
	if err != nil {
		return domain, NewServiceHttpClientError(err.Error())
	}

	return domain, nil
}

// DeserializeElementFromURL reads the element of a request:
// domain in path, and then each part of the key as a key query parameter.
// For instance, /values/get/ego_alter/calls/at/-oo/?key=bob&key=OUT
func DeserializeElementFromURL(r *http.Request) (elements.Element, error) {
	domain, errDomain := DeserializeDomainFromURL(r)
	if errDomain != nil {
		return nil, errDomain
	}

	key := r.URL.Query()["key"]
	if key == nil {
		key = []string{}
	}

	element, err := elements.FromSelectionKey(domain, key)
	if err != nil {
		return nil, NewServiceHttpClientError(err.Error())
	}

	return element, nil
}

// getValueHandler returns the value of an attribute for an element at a moment
func getValueHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	moment, errMoment := DeserializeMomentFromURL(r.PathValue("moment"))
	if errMoment != nil {
		return errMoment
	}

	element, errElement := DeserializeElementFromURL(r)
	if errElement != nil {
		return errElement
	}

	attribute := r.PathValue("attribute")
	result := ValueDTO{Element: SerializeElement(element)}
	err := wrapper.Store.View(wrapper.Ctx, func(session *versioned.Session) error {
		if value, found, err := session.GetValueAt(moment, attribute, element); err != nil {
			return err
		} else if !found {
			return nil
		} else {
			result.Value = value
			result.Found = true
		}

		if id, found, err := session.GetDatumIDAt(moment, attribute, element); err != nil {
			return err
		} else if found {
			result.DatumID = id
		}

		return nil
	})

	if err != nil {
		return BuildApiErrorFromStoreError(err)
	}

	return writeJSON(w, result)
}

// historyHandler returns all the values of an attribute for an element
func historyHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	element, errElement := DeserializeElementFromURL(r)
	if errElement != nil {
		return errElement
	}

	attribute := r.PathValue("attribute")
	history, err := wrapper.Store.GetAllValuesOverTime(wrapper.Ctx, attribute, element)
	if err != nil {
		return BuildApiErrorFromStoreError(err)
	}

	return writeJSON(w, HistoryDTO{
		Element:   SerializeElement(element),
		Attribute: attribute,
		Values:    SerializeHistory(history),
	})
}

// allValuesHandler returns the values of an attribute for all elements of a domain at a moment
func allValuesHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	moment, errMoment := DeserializeMomentFromURL(r.PathValue("moment"))
	if errMoment != nil {
		return errMoment
	}

	domain, errDomain := DeserializeDomainFromURL(r)
	if errDomain != nil {
		return errDomain
	}

	var values []versioned.ElementValue
	err := wrapper.Store.View(wrapper.Ctx, func(session *versioned.Session) error {
		result, err := session.GetValuesOfAttributeAcrossAllElementsAt(moment, domain, r.PathValue("attribute"))
		values = result
		return err
	})

	if err != nil {
		return BuildApiErrorFromStoreError(err)
	}

	result := make([]ValueDTO, 0, len(values))
	for _, value := range values {
		result = append(result, ValueDTO{
			Element: SerializeElement(value.Element),
			Value:   value.Value,
			DatumID: value.DatumID,
			Found:   true,
		})
	}

	return writeJSON(w, result)
}
