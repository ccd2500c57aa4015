package state

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatesFirstAppearanceOrder(t *testing.T) {
	topo, err := jobBuilder().Build()
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []jobState{pending, running, done, flunked}, topo.States())
}

func TestArcsFromSortedByKind(t *testing.T) {
	topo, err := jobBuilder().Build()
	if err != nil {
		t.Fatal(err)
	}

	arcs := topo.ArcsFrom(running)
	if len(arcs) != 2 {
		t.Fatalf("expected 2 arcs from running, got %d", len(arcs))
	}
	// FAIL sorts before FINISH
	assert.Equal(t, fail, arcs[0].On)
	assert.Equal(t, finish, arcs[1].On)
	assert.Equal(t, []jobState{flunked}, arcs[0].Targets)

	assert.Empty(t, topo.ArcsFrom(done))
}

func TestExportDot(t *testing.T) {
	topo, err := jobBuilder().
		AddTransition(running, running, poke, mark("p")).
		AddTransition(done, done, poke, mark("p")).
		AddTransition(done, done, run, mark("r")).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	dot := ExportDot(topo, "job")

	expected := `digraph job {
graph [label="job", fontsize=24, fontname=Helvetica];
node [fontsize=12, fontname=Helvetica];
edge [fontsize=9, fontcolor=blue, fontname=Arial];
"job.PENDING" [label=PENDING];
"job.PENDING" -> "job.RUNNING" [label="RUN"];
"job.RUNNING" [label=RUNNING];
"job.RUNNING" -> "job.FLUNKED" [label="FAIL"];
"job.RUNNING" -> "job.DONE" [label="FINISH"];
"job.RUNNING" -> "job.RUNNING" [label="POKE"];
"job.DONE" [label=DONE];
"job.DONE" -> "job.DONE" [label="POKE,\nRUN"];
"job.FLUNKED" [label=FLUNKED];
}
`
	assert.Equal(t, expected, dot)
}

func TestExportDotIdempotent(t *testing.T) {
	topo, err := jobBuilder().Build()
	if err != nil {
		t.Fatal(err)
	}

	first := ExportDot(topo, "job")
	for i := 0; i < 10; i++ {
		if next := ExportDot(topo, "job"); next != first {
			t.Fatalf("export %d differs from first", i)
		}
	}
}

func TestExportDotMultiArcExpansion(t *testing.T) {
	topo, err := NewBuilder[*job, jobState, jobEventKind, jobEvent](running).
		AddMultiArc(running, []jobState{done, flunked}, finish,
			func(j *job, from jobState, kind jobEventKind, e jobEvent) (jobState, error) {
				return done, nil
			}).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	dot := ExportDot(topo, "job")
	assert.True(t, strings.Contains(dot, `"job.RUNNING" -> "job.DONE" [label="FINISH"];`), dot)
	assert.True(t, strings.Contains(dot, `"job.RUNNING" -> "job.FLUNKED" [label="FINISH"];`), dot)
}
