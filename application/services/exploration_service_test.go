package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appevents "conceptgraph-backend/application/events"
	"conceptgraph-backend/application/ports"
	"conceptgraph-backend/domain/core/aggregates"
	"conceptgraph-backend/domain/core/entities"
	"conceptgraph-backend/domain/traversal"
	"conceptgraph-backend/infrastructure/acl"
	"conceptgraph-backend/infrastructure/config"
	pkgerrors "conceptgraph-backend/pkg/errors"
	"conceptgraph-backend/pkg/observability"
)

// MockExpander is a testify mock of the concept expansion oracle
type MockExpander struct {
	mock.Mock
}

func (m *MockExpander) Expand(ctx context.Context, req ports.ExpansionRequest) (*ports.ExpansionResponse, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*ports.ExpansionResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

// recordingPublisher captures projection pushes
type recordingPublisher struct {
	mu    sync.Mutex
	calls []aggregates.Projection
}

func (p *recordingPublisher) PublishProjection(sessionID string, projection aggregates.Projection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, projection)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func newService(t *testing.T, expander ports.ConceptExpander) *ExplorationService {
	t.Helper()
	logger := zap.NewNop()
	watcher, err := config.NewWatcher("", logger)
	require.NoError(t, err)
	t.Cleanup(watcher.Stop)

	return NewExplorationService(
		expander,
		acl.NewExpansionTranslator(logger),
		appevents.NewDispatcher(logger),
		watcher,
		observability.NewMetrics(prometheus.NewRegistry()),
		logger,
	)
}

func bootstrapInput() BootstrapInput {
	vmem := entities.NewGraphNode("vmem", "Membrane Voltage", entities.NodeTypeConcept)
	vmem.IsDirectMatch = true
	gap := entities.NewGraphNode("gap_junction", "Gap Junction", entities.NodeTypeMolecule)

	return BootstrapInput{
		AnchorContext: "bioelectric signaling drives regeneration",
		Depth:         traversal.DepthUnbounded,
		Nodes:         []entities.GraphNode{vmem, gap},
		Edges: []entities.GraphEdge{{
			From: "vmem", To: "gap_junction", Relationship: entities.RelInteractsWith,
		}},
		MatchedEntities: []string{"vmem"},
	}
}

func TestBootstrap_CreatesSessionWithResolvedSeeds(t *testing.T) {
	svc := newService(t, new(MockExpander))

	id, projection, err := svc.Bootstrap(context.Background(), bootstrapInput())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Len(t, projection.VisibleNodes, 2)
	assert.Len(t, projection.VisibleEdges, 1)
	assert.Equal(t, []string{"vmem"}, projection.SeedIDs)
	assert.Equal(t, 1, svc.SessionCount())
}

func TestBootstrap_DropsDanglingEdges(t *testing.T) {
	svc := newService(t, new(MockExpander))
	input := bootstrapInput()
	input.Edges = append(input.Edges, entities.GraphEdge{
		From: "vmem", To: "nowhere", Relationship: entities.RelActivates,
	})

	_, projection, err := svc.Bootstrap(context.Background(), input)
	require.NoError(t, err)
	assert.Len(t, projection.VisibleEdges, 1)
}

func TestBootstrap_EnforcesNodeLimitFromRuntimeConfig(t *testing.T) {
	logger := zap.NewNop()
	path := filepath.Join(t.TempDir(), "runtime.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits:\n  maxSessions: 10\n  maxNodesPerSession: 1\n"), 0o644))

	watcher, err := config.NewWatcher(path, logger)
	require.NoError(t, err)
	t.Cleanup(watcher.Stop)

	svc := NewExplorationService(
		new(MockExpander),
		acl.NewExpansionTranslator(logger),
		appevents.NewDispatcher(logger),
		watcher,
		observability.NewMetrics(prometheus.NewRegistry()),
		logger,
	)

	_, _, err = svc.Bootstrap(context.Background(), bootstrapInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeValidation))
}

func TestTeardown_RemovesSession(t *testing.T) {
	svc := newService(t, new(MockExpander))
	id, _, err := svc.Bootstrap(context.Background(), bootstrapInput())
	require.NoError(t, err)

	require.NoError(t, svc.Teardown(context.Background(), id))
	assert.Zero(t, svc.SessionCount())

	err = svc.Teardown(context.Background(), id)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeNotFound))
}

func TestSetDepth_PublishesFreshProjection(t *testing.T) {
	svc := newService(t, new(MockExpander))
	publisher := &recordingPublisher{}
	svc.SetProjectionPublisher(publisher)

	id, _, err := svc.Bootstrap(context.Background(), bootstrapInput())
	require.NoError(t, err)
	before := publisher.count()

	projection, err := svc.SetDepth(context.Background(), id, 0)
	require.NoError(t, err)
	assert.Len(t, projection.VisibleNodes, 1)
	assert.Equal(t, 1, projection.HiddenCount)
	assert.Greater(t, publisher.count(), before)
}

func TestSelection_RoundTrip(t *testing.T) {
	svc := newService(t, new(MockExpander))
	id, _, err := svc.Bootstrap(context.Background(), bootstrapInput())
	require.NoError(t, err)

	view, err := svc.SelectNode(context.Background(), id, "vmem")
	require.NoError(t, err)
	require.NotNil(t, view.Node)
	assert.True(t, view.Node.IsSeed)

	view, err = svc.Selection(id)
	require.NoError(t, err)
	assert.Equal(t, "vmem", view.Selection.NodeID)

	require.NoError(t, svc.ClearSelection(context.Background(), id))
	view, err = svc.Selection(id)
	require.NoError(t, err)
	assert.True(t, view.Selection.IsEmpty())
	assert.Nil(t, view.Node)
}

func TestExpand_MergesOracleResult(t *testing.T) {
	expander := new(MockExpander)
	expander.On("Expand", mock.Anything, mock.MatchedBy(func(req ports.ExpansionRequest) bool {
		return req.ConceptName == "Gap Junction" && req.MaxSourceResults == 8
	})).Return(&ports.ExpansionResponse{
		RelatedConcepts: []ports.RelatedConcept{{
			Name: "Innexin", Type: "gene", Relationship: "required_for",
		}},
		CounterArguments: []ports.CounterArgument{{
			Argument: "Coupling alone does not pattern the blastema",
		}},
	}, nil)

	svc := newService(t, expander)
	id, _, err := svc.Bootstrap(context.Background(), bootstrapInput())
	require.NoError(t, err)

	projection, err := svc.Expand(context.Background(), id, "gap_junction")
	require.NoError(t, err)

	assert.Len(t, projection.VisibleNodes, 4)
	assert.Len(t, projection.VisibleEdges, 3)
	assert.Empty(t, projection.ExpandingNodeID)

	view, err := svc.SelectNode(context.Background(), id, "gap_junction")
	require.NoError(t, err)
	assert.Equal(t, entities.ExpansionExpanded, view.Node.ExpansionState)
	expander.AssertExpectations(t)
}

func TestExpand_TransportFailureRollsBack(t *testing.T) {
	expander := new(MockExpander)
	oracleErr := pkgerrors.NewExternalError("concept expansion service", "request failed")
	expander.On("Expand", mock.Anything, mock.Anything).Return(nil, oracleErr)

	svc := newService(t, expander)
	id, _, err := svc.Bootstrap(context.Background(), bootstrapInput())
	require.NoError(t, err)

	_, err = svc.Expand(context.Background(), id, "gap_junction")
	require.Error(t, err)

	view, err := svc.SelectNode(context.Background(), id, "gap_junction")
	require.NoError(t, err)
	assert.Equal(t, entities.ExpansionCollapsed, view.Node.ExpansionState)
	assert.NotEmpty(t, view.Node.LastError)
	assert.True(t, view.Node.CanExpand)
}

func TestExpand_PreconditionFailureIsSilentNoOp(t *testing.T) {
	expander := new(MockExpander)
	svc := newService(t, expander)
	id, before, err := svc.Bootstrap(context.Background(), bootstrapInput())
	require.NoError(t, err)

	projection, err := svc.Expand(context.Background(), id, "no_such_node")
	require.NoError(t, err)
	assert.Equal(t, len(before.VisibleNodes), len(projection.VisibleNodes))
	expander.AssertNotCalled(t, "Expand", mock.Anything, mock.Anything)
}

func TestExpand_ResultAfterResetIsDiscarded(t *testing.T) {
	expander := new(MockExpander)
	svc := newService(t, expander)
	id, _, err := svc.Bootstrap(context.Background(), bootstrapInput())
	require.NoError(t, err)

	fresh := BootstrapInput{
		AnchorContext:   "a different claim",
		Depth:           traversal.DepthUnbounded,
		Nodes:           []entities.GraphNode{entities.NewGraphNode("other", "Other", entities.NodeTypeConcept)},
		MatchedEntities: []string{"other"},
	}

	// Reset the session while the oracle call is in flight. The expansion
	// epoch guard must discard the stale result.
	expander.On("Expand", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		_, resetErr := svc.Reset(context.Background(), id, fresh)
		require.NoError(t, resetErr)
	}).Return(&ports.ExpansionResponse{
		RelatedConcepts: []ports.RelatedConcept{{Name: "Stale Concept"}},
	}, nil)

	projection, err := svc.Expand(context.Background(), id, "gap_junction")
	require.NoError(t, err)

	assert.Len(t, projection.VisibleNodes, 1)
	assert.Equal(t, "other", projection.VisibleNodes[0].ID)
}

func TestExpand_ResultAfterTeardownIsDiscarded(t *testing.T) {
	expander := new(MockExpander)
	svc := newService(t, expander)
	id, _, err := svc.Bootstrap(context.Background(), bootstrapInput())
	require.NoError(t, err)

	expander.On("Expand", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		require.NoError(t, svc.Teardown(context.Background(), id))
	}).Return(&ports.ExpansionResponse{}, nil)

	_, err = svc.Expand(context.Background(), id, "gap_junction")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeNotFound))
}

func TestReset_AdvancesEpochAndReplacesGraph(t *testing.T) {
	svc := newService(t, new(MockExpander))
	id, _, err := svc.Bootstrap(context.Background(), bootstrapInput())
	require.NoError(t, err)

	fresh := BootstrapInput{
		AnchorContext: "new anchor",
		Depth:         traversal.Depth(1),
		Nodes:         []entities.GraphNode{entities.NewGraphNode("solo", "Solo", entities.NodeTypeConcept)},
	}
	projection, err := svc.Reset(context.Background(), id, fresh)
	require.NoError(t, err)

	require.Len(t, projection.VisibleNodes, 1)
	assert.Equal(t, "solo", projection.VisibleNodes[0].ID)
	assert.Equal(t, 1, svc.SessionCount())
}
