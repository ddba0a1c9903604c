package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	all, err := Lookup(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{Programathor, WeWorkRemotely, RemoteOK}, namesOf(all))

	some, err := Lookup([]string{"RemoteOK", " programathor "})
	require.NoError(t, err)
	assert.Equal(t, []string{Programathor, RemoteOK}, namesOf(some))

	_, err = Lookup([]string{"indeed"})
	assert.ErrorContains(t, err, "indeed")
}

func TestSpecs_AreValid(t *testing.T) {
	for _, s := range Specs() {
		assert.NoError(t, s.validate(), s.Name)
	}
	assert.Equal(t, Names(), namesOf(Specs()))
}

func TestListingFor(t *testing.T) {
	s := mustSpec(t, WeWorkRemotely)
	assert.Equal(t, "https://weworkremotely.com/remote-jobs/search?term=go+backend", s.ListingFor("go+backend"))
}

func namesOf(specs []Spec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Name
	}
	return out
}
