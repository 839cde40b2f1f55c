package serving

import (
	"net/http"

	"github.com/zefrenchwan/egonet.git/graphs"
)

// snapshotHandler returns the ego network at a moment, with the values at that moment
func snapshotHandler(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	moment, errMoment := DeserializeMomentFromURL(r.PathValue("moment"))
	if errMoment != nil {
		return errMoment
	}

	graph, err := graphs.BuildFromStore(wrapper.Ctx, wrapper.Store, moment)
	if err != nil {
		return BuildApiErrorFromStoreError(err)
	}

	wrapper.Logger.Debugw("snapshot", "id", graph.Id, "nodes", len(graph.Nodes()), "edges", len(graph.Edges()))
	return writeJSON(w, SerializeGraph(graph))
}
