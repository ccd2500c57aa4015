package sugar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name   string
	Count  int
	hidden string
	Empty  string
}

func TestPretty(t *testing.T) {
	assert.Equal(t, "sample{Name: fetch, Count: 2}", Pretty(sample{Name: "fetch", Count: 2, hidden: "x"}))
	assert.Equal(t, "sample{Name: fetch}", Pretty(&sample{Name: "fetch"}))
	assert.Equal(t, "sample{}", Pretty(sample{}))
	assert.Equal(t, "7", Pretty(7))
}

func TestPrettyArc(t *testing.T) {
	assert.Equal(t, "INIT x REQUEST -> DOWNLOADING", PrettyArc("INIT", "REQUEST", "DOWNLOADING"))
}
