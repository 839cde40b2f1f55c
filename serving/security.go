package serving

import (
	"encoding/json"
	"io"
	"net/http"
)

// UserInformationInput is input for /token endpoint
type UserInformationInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// checkUserAndGenerateTokenHandler reads user data, and, if authentication matches, returns a token for this user
func checkUserAndGenerateTokenHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	var userInput UserInformationInput
	if !wrapper.Auth.Enabled() {
		return NewServiceNotFoundError("authentication is disabled")
	} else if body, errBody := io.ReadAll(r.Body); errBody != nil {
		return NewServiceUnprocessableEntityError(errBody.Error())
	} else if err := json.Unmarshal(body, &userInput); err != nil {
		return NewServiceUnprocessableEntityError(err.Error())
	} else if !wrapper.Auth.CheckUser(userInput.Username, userInput.Password) {
		wrapper.Logger.Infow("invalid credentials", "user", userInput.Username)
		return NewServiceForbiddenError("invalid user")
	}

	// generate token
	newToken, err := wrapper.Auth.createToken(userInput.Username)
	if err != nil {
		return NewServiceInternalServerError(err.Error())
	}

	result := map[string]string{"token": newToken, "duration": wrapper.Auth.TokenDuration.String()}
	return writeJSON(w, result)
}
