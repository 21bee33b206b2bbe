package devices

import (
	"net/url"
	"testing"

	"github.com/cityinfra/asset-registry/internal/entities"
)

func TestRestrictListing(t *testing.T) {
	user := &entities.User{ID: "u1"}

	cases := []struct {
		name  string
		query string
		user  *entities.User
		want  bool
	}{
		{"anonymous default is public", "", nil, false},
		{"signed-in default narrows", "", user, true},
		{"all=true widens for signed-in", "all=true", user, false},
		{"mine=true narrows anonymous", "mine=true", nil, true},
		{"mine=true narrows signed-in", "mine=true", user, true},
		{"mine wins over all", "all=true&mine=true", user, true},
	}

	for _, tc := range cases {
		q, err := url.ParseQuery(tc.query)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got := RestrictListing(q, tc.user); got != tc.want {
			t.Errorf("%s: RestrictListing = %v, want %v", tc.name, got, tc.want)
		}
	}
}
