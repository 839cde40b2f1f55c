package serving

import (
	"net/http"

	"github.com/zefrenchwan/egonet.git/lifetimes"
)

// entitiesBetweenHandler returns the elements existing during [start;end[.
// When start equals end, elements existing at that moment
func entitiesBetweenHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	start, errStart := DeserializeMomentFromURL(r.PathValue("start"))
	if errStart != nil {
		return errStart
	}

	end, errEnd := DeserializeMomentFromURL(r.PathValue("end"))
	if errEnd != nil {
		return errEnd
	}

	var interval lifetimes.TimeInterval
	if start == end {
		interval = lifetimes.NewTimePoint(start)
	} else if value, err := lifetimes.NewTimeInterval(start, end); err != nil {
		return NewServiceHttpClientError(err.Error())
	} else {
		interval = value
	}

	values, err := wrapper.Store.GetAllEntitiesAt(wrapper.Ctx, interval)
	if err != nil {
		return BuildApiErrorFromStoreError(err)
	}

	return writeJSON(w, SerializeElements(values))
}
