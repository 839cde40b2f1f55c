package serving

import (
	"net/http"
	"strconv"

	"github.com/zefrenchwan/egonet.git/schema"
	"github.com/zefrenchwan/egonet.git/versioned"
)

// SecondaryInput sets a secondary value of a datum
type SecondaryInput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// listAttributesHandler returns the declarations of a domain, sorted by name
func listAttributesHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	domain, errDomain := DeserializeDomainFromURL(r)
	if errDomain != nil {
		return errDomain
	}

	var result []schema.Attribute
	err := wrapper.Store.View(wrapper.Ctx, func(session *versioned.Session) error {
		values, err := session.ListAttributes(domain)
		result = values
		return err
	})

	if err != nil {
		return BuildApiErrorFromStoreError(err)
	} else if result == nil {
		result = []schema.Attribute{}
	}

	return writeJSON(w, result)
}

// deserializeDatumID reads the datum id in path, or returns a 400
func deserializeDatumID(r *http.Request) (int64, error) {
	value := r.PathValue("datumId")
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, NewServiceHttpClientError("invalid datum id " + value)
	}

	return id, nil
}

// getSecondaryHandler returns the secondary values of a datum, timestamps included
func getSecondaryHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	id, errId := deserializeDatumID(r)
	if errId != nil {
		return errId
	}

	var result map[string]string
	err := wrapper.Store.View(wrapper.Ctx, func(session *versioned.Session) error {
		values, err := session.GetSecondaryAttributeValues(id)
		result = values
		return err
	})

	if err != nil {
		return BuildApiErrorFromStoreError(err)
	} else if len(result) == 0 {
		return NewServiceNotFoundError("no datum " + strconv.FormatInt(id, 10))
	}

	return writeJSON(w, result)
}

// setSecondaryHandler sets a secondary value of a datum
func setSecondaryHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	id, errId := deserializeDatumID(r)
	if errId != nil {
		return errId
	}

	var input SecondaryInput
	if err := readJSON(r, &input); err != nil {
		return err
	}

	err := wrapper.Store.Update(wrapper.Ctx, func(session *versioned.Session) error {
		return session.SetSecondaryAttributeValue(id, input.Name, input.Value)
	})

	if err != nil {
		return BuildApiErrorFromStoreError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
