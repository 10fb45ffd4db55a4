package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zen-systems/repairdesk/pkg/recordstore"
)

func TestNodeFromRecord(t *testing.T) {
	tests := []struct {
		name string
		in   recordstore.Record
		want Node
	}{
		{
			name: "full record",
			in: recordstore.Record{
				"id": "N1", "question": "Is the light on?", "category": "battery",
				"is_start": true, "branch_targets": []any{"N2", "N3"},
			},
			want: Node{ID: "N1", Question: "Is the light on?", Category: "battery", IsStart: true, BranchTargets: []string{"N2", "N3"}},
		},
		{
			name: "string flags and csv targets",
			in:   recordstore.Record{"$id": "N2", "is_terminal": "false", "next_nodes": "N4, N5"},
			want: Node{ID: "N2", BranchTargets: []string{"N4", "N5"}},
		},
		{
			name: "missing optional fields",
			in:   recordstore.Record{"id": "N3", "is_terminal": true},
			want: Node{ID: "N3", IsTerminal: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, NodeFromRecord(tt.in)); diff != "" {
				t.Fatalf("node mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveBranch(t *testing.T) {
	two := Node{ID: "a", BranchTargets: []string{"yes", "no"}}
	one := Node{ID: "b", BranchTargets: []string{"only"}}
	none := Node{ID: "c"}

	tests := []struct {
		node   Node
		answer bool
		want   string
		ok     bool
	}{
		{two, true, "yes", true},
		{two, false, "no", true},
		{one, true, "only", true},
		{one, false, "", false},
		{none, true, "", false},
		{none, false, "", false},
		{Node{BranchTargets: []string{"", "n"}}, true, "", false},
	}
	for _, tt := range tests {
		got, ok := ResolveBranch(tt.node, tt.answer)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ResolveBranch(%v, %v) = %q, %v; want %q, %v", tt.node.BranchTargets, tt.answer, got, ok, tt.want, tt.ok)
		}
	}
}

func TestGraphIsImmutableSnapshot(t *testing.T) {
	nodes := []Node{{ID: "N1", IsStart: true, BranchTargets: []string{"N2"}}, {ID: "N2", IsTerminal: true}}
	g := New("cat", nodes)

	nodes[0].BranchTargets[0] = "changed"
	n, ok := g.Node("N1")
	require.True(t, ok)
	assert.Equal(t, "N2", n.BranchTargets[0])

	n.BranchTargets[0] = "changed"
	again, _ := g.Node("N1")
	assert.Equal(t, "N2", again.BranchTargets[0])
}

func TestStartNode(t *testing.T) {
	g := New("cat", []Node{{ID: "N1", IsStart: true}, {ID: "N2"}})
	start, err := g.StartNode()
	require.NoError(t, err)
	assert.Equal(t, "N1", start.ID)

	_, err = New("cat", []Node{{ID: "N1"}}).StartNode()
	assert.ErrorIs(t, err, ErrNoStartNode)

	_, err = New("cat", []Node{{ID: "A", IsStart: true}, {ID: "B", IsStart: true}}).StartNode()
	var ambiguous *AmbiguousStartError
	require.True(t, errors.As(err, &ambiguous))
	assert.Equal(t, []string{"A", "B"}, ambiguous.NodeIDs)
}

func TestValidate(t *testing.T) {
	g := New("cat", []Node{
		{ID: "S1", IsStart: true, BranchTargets: []string{"T1", "missing", "T2"}},
		{ID: "S2", IsStart: true},
		{ID: "T1", IsTerminal: true, BranchTargets: []string{"S1"}},
		{ID: "T2", IsTerminal: true},
		{ID: "T2", IsTerminal: true},
	})

	kinds := map[IssueKind]int{}
	for _, issue := range g.Validate() {
		kinds[issue.Kind]++
		assert.NotEmpty(t, issue.String())
	}
	assert.Equal(t, 2, kinds[IssueMultipleStarts])
	assert.Equal(t, 1, kinds[IssueDuplicateID])
	assert.Equal(t, 1, kinds[IssueTerminalWithTargets])
	assert.Equal(t, 1, kinds[IssueDanglingTarget])
	assert.Equal(t, 1, kinds[IssueTooManyTargets])
	assert.Equal(t, 1, kinds[IssueNoTargets])

	assert.Empty(t, New("cat", nil).Validate())
	clean := New("cat", []Node{
		{ID: "N1", IsStart: true, BranchTargets: []string{"N2", "N3"}},
		{ID: "N2", IsTerminal: true},
		{ID: "N3", IsTerminal: true},
	})
	assert.Empty(t, clean.Validate())
}

func TestLoaderLoad(t *testing.T) {
	store := recordstore.NewMemoryStore()
	store.Put(Collection,
		recordstore.Record{"id": "N1", "category": "battery", "is_start": true, "branch_targets": "N2,N3"},
		recordstore.Record{"id": "N2", "category": "battery", "is_terminal": true, "result_text": "Flat battery"},
		recordstore.Record{"id": "N3", "category": "battery", "is_terminal": true},
		recordstore.Record{"id": "G1", "category": "gas", "is_start": true},
		recordstore.Record{"category": "battery"},
	)

	core, logs := observer.New(zapcore.WarnLevel)
	loader := NewLoader(store, WithLogger(zap.New(core)))

	g, err := loader.Load(context.Background(), "battery")
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, "battery", g.Category())
	assert.Equal(t, 1, logs.FilterMessage("skipping diagnostic node without id").Len())
	assert.Zero(t, logs.FilterMessage("diagnostic graph issue").Len())
}

func TestLoaderEmptyCategory(t *testing.T) {
	loader := NewLoader(recordstore.NewMemoryStore())
	g, err := loader.Load(context.Background(), "nothing")
	require.NoError(t, err)
	assert.True(t, g.Empty())
}

func TestLoaderTransportError(t *testing.T) {
	store := recordstore.NewMemoryStore()
	cause := errors.New("connection refused")
	store.FailWith(cause)

	_, err := NewLoader(store).Load(context.Background(), "battery")
	var loadErr *GraphLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "battery", loadErr.Category)
	assert.ErrorIs(t, err, cause)
}

func TestLoaderLogsIssues(t *testing.T) {
	store := recordstore.NewMemoryStore()
	store.Put("custom_nodes", recordstore.Record{"id": "N1", "category": "gas"})

	core, logs := observer.New(zapcore.WarnLevel)
	g, err := NewLoader(store, WithCollection("custom_nodes"), WithLogger(zap.New(core))).Load(context.Background(), "gas")
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, 2, logs.FilterMessage("diagnostic graph issue").Len())
}
