package serving

import (
	"net/http"

	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/lifetimes"
)

// LifetimeInput is the input to add or remove an element during an interval
type LifetimeInput struct {
	Element ElementDTO `json:"element"`
	// Interval is [start;end[ or [point]. Empty means always
	Interval string `json:"interval"`
}

// SetValueInput is the input to set a value of an attribute during an interval
type SetValueInput struct {
	Element   ElementDTO `json:"element"`
	Interval  string     `json:"interval"`
	Attribute string     `json:"attribute"`
	Value     string     `json:"value"`
}

// RenameAlterInput is the input to rename an alter
type RenameAlterInput struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// DeserializeInterval parses an interval, empty value meaning always. Error is a 400
func DeserializeInterval(value string) (lifetimes.TimeInterval, error) {
	if value == "" {
		return lifetimes.Always(), nil
	}

	interval, err := lifetimes.ParseTimeInterval(value)
	if err != nil {
		return interval, NewServiceHttpClientError("invalid interval: " + err.Error())
	}

	return interval, nil
}

// readElementAndInterval deserializes both parts of an input
func readElementAndInterval(dto ElementDTO, value string) (elements.Element, lifetimes.TimeInterval, error) {
	interval, errInterval := DeserializeInterval(value)
	if errInterval != nil {
		return nil, interval, errInterval
	}

	element, err := DeserializeElement(dto)
	if err != nil {
		return nil, interval, NewServiceHttpClientError(err.Error())
	}

	return element, interval, nil
}

// addLifetimeHandler extends the lifetime of an element
func addLifetimeHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	var input LifetimeInput
	if err := readJSON(r, &input); err != nil {
		return err
	}

	element, interval, err := readElementAndInterval(input.Element, input.Interval)
	if err != nil {
		return err
	}

	if err := wrapper.Store.AddElement(wrapper.Ctx, element, interval); err != nil {
		return BuildApiErrorFromStoreError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// removeLifetimeHandler removes an element during an interval, cascading to its values
func removeLifetimeHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	var input LifetimeInput
	if err := readJSON(r, &input); err != nil {
		return err
	}

	element, interval, err := readElementAndInterval(input.Element, input.Interval)
	if err != nil {
		return err
	}

	if err := wrapper.Store.RemoveElement(wrapper.Ctx, element, interval); err != nil {
		return BuildApiErrorFromStoreError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// renameAlterHandler renames an alter everywhere
func renameAlterHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	var input RenameAlterInput
	if err := readJSON(r, &input); err != nil {
		return err
	}

	if err := wrapper.Store.RenameAlter(wrapper.Ctx, input.Old, input.New); err != nil {
		return BuildApiErrorFromStoreError(err)
	}

	if user, found := wrapper.CurrentUser(); found {
		wrapper.Logger.Infow("alter renamed", "user", user, "old", input.Old, "new", input.New)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// setValueHandler sets the value of an attribute for an element during an interval
func setValueHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	var input SetValueInput
	if err := readJSON(r, &input); err != nil {
		return err
	}

	element, interval, err := readElementAndInterval(input.Element, input.Interval)
	if err != nil {
		return err
	}

	if err := wrapper.Store.SetAttributeValueAt(wrapper.Ctx, interval, input.Attribute, element, input.Value); err != nil {
		return BuildApiErrorFromStoreError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
