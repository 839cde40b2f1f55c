package serving

import (
	"encoding/json"
	"net/http"
)

// CheckStatusResponse defines json to display when asking for status
type CheckStatusResponse struct {
	// Active is true when server is up
	Active bool `json:"active"`
	// Description is more about this serving instance
	Description string `json:"description,omitempty"`
	// Authenticated is true if requests need a token
	Authenticated bool `json:"authenticated"`
}

// checkStatusHandler deals with a request to test status on a server
func checkStatusHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	result := CheckStatusResponse{
		Active:        true,
		Description:   "Egonet server",
		Authenticated: wrapper.Auth.Enabled(),
	}

	return writeJSON(w, result)
}

// writeJSON writes value as the json response
func writeJSON(w http.ResponseWriter, value any) error {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		return NewServiceInternalServerError(err.Error())
	}

	return nil
}

// readJSON reads the body of r into value, or returns a 422 error
func readJSON(r *http.Request, value any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(value); err != nil {
		return NewServiceUnprocessableEntityError("invalid payload: " + err.Error())
	}

	return nil
}
