package serving

import (
	"net/http"

	"github.com/zefrenchwan/egonet.git/schema"
)

// declareAttributeHandler declares (or redeclares) an attribute
func declareAttributeHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	var declaration schema.Attribute
	if err := readJSON(r, &declaration); err != nil {
		return err
	}

	if err := wrapper.Store.DeclareAttribute(wrapper.Ctx, declaration); err != nil {
		return BuildApiErrorFromStoreError(err)
	}

	wrapper.Logger.Infow("attribute declared", "domain", declaration.Domain.String(), "attribute", declaration.Name)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// importHandler applies a batch of facts in one transaction.
// Rejected facts are reported, they do not stop the import
func importHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	var input []FactDTO
	if err := readJSON(r, &input); err != nil {
		return err
	}

	facts, errFacts := DeserializeFacts(input)
	if errFacts != nil {
		return NewServiceHttpClientError(errFacts.Error())
	}

	report, err := wrapper.Store.Import(wrapper.Ctx, facts)
	if err != nil {
		return BuildApiErrorFromStoreError(err)
	}

	wrapper.Logger.Infow("import", "applied", report.Applied, "rejected", len(report.Rejected))
	return writeJSON(w, SerializeImportReport(report))
}
