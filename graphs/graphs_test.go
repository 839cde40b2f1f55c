package graphs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/graphs"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/schema"
	"github.com/zefrenchwan/egonet.git/storage"
	"github.com/zefrenchwan/egonet.git/versioned"
	"go.uber.org/zap/zaptest"
)

func TestEmptyGraph(t *testing.T) {
	graph := graphs.NewEmptyGraph(10)
	assert.NotEmpty(t, graph.Id)
	assert.Empty(t, graph.Nodes())
	assert.False(t, graph.SetValue(elements.Ego{}, "mood", graphs.Value{Value: "happy"}))

	graph.AddElement(elements.Ego{})
	graph.AddElement(elements.Ego{})
	assert.Len(t, graph.Nodes(), 1)
	assert.True(t, graph.SetValue(elements.Ego{}, "mood", graphs.Value{Value: "happy"}))
	assert.Equal(t, "happy", graph.Nodes()[0].Attributes["mood"].Value)

	var missing *graphs.Graph
	assert.Nil(t, missing.Nodes())
	assert.Nil(t, missing.Neighbours("alice"))
}

func TestBuild(t *testing.T) {
	store := versioned.New(storage.NewMemoryStore(), versioned.Options{Logger: zaptest.NewLogger(t).Sugar()})
	defer store.Close()

	ctx := context.Background()
	for _, attribute := range []schema.Attribute{
		{Name: "city", Domain: elements.ALTER},
		{Name: "closeness", Domain: elements.ALTER_ALTER, Direction: schema.SYMMETRIC},
		{Name: "calls", Domain: elements.EGO_ALTER, ValueType: schema.NUMBER, Direction: schema.INWARD},
	} {
		require.NoError(t, store.DeclareAttribute(ctx, attribute))
	}

	during := lifetimes.MustTimeInterval(0, 100)
	require.NoError(t, store.SetAttributeValueAt(ctx, during, "city", elements.Alter{Name: "bob"}, "Lyon"))
	require.NoError(t, store.SetAttributeValueAt(ctx, during, "closeness", elements.AlterAlterDyad{Source: "alice", Target: "bob"}, "close"))
	require.NoError(t, store.SetAttributeValueAt(ctx, during, "calls", elements.EgoAlterDyad{Alter: "bob", Direction: elements.IN}, "4"))
	require.NoError(t, store.AddElement(ctx, elements.Alter{Name: "carol"}, lifetimes.MustTimeInterval(200, 300)))

	graph, err := graphs.BuildFromStore(ctx, store, 50)
	require.NoError(t, err)
	assert.Equal(t, lifetimes.Moment(50), graph.At)

	nodes := graph.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, elements.Ego{}, nodes[0].Element)
	assert.Equal(t, elements.Alter{Name: "alice"}, nodes[1].Element)
	assert.Equal(t, "Lyon", nodes[2].Attributes["city"].Value)
	assert.NotZero(t, nodes[2].Attributes["city"].DatumID)

	edges := graph.Edges()
	require.Len(t, edges, 3)
	assert.Equal(t, elements.EgoAlterDyad{Alter: "bob", Direction: elements.IN}, edges[0].Element)
	assert.Equal(t, "bob", edges[0].Source)
	assert.Empty(t, edges[0].Target)
	assert.Equal(t, "4", edges[0].Attributes["calls"].Value)
	assert.Equal(t, "close", edges[1].Attributes["closeness"].Value)
	assert.Equal(t, "close", edges[2].Attributes["closeness"].Value)
	assert.Equal(t, []string{"bob"}, graph.Neighbours("alice"))

	graph, err = graphs.BuildFromStore(ctx, store, 250)
	require.NoError(t, err)
	assert.Len(t, graph.Nodes(), 2)
	assert.Empty(t, graph.Edges())
}
