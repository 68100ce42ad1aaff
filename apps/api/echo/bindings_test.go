package echoapi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ums/core"
)

func Test_parseOrdering(t *testing.T) {
	tests := []struct {
		param string
		want  []core.DBOrdering
	}{
		{param: "", want: nil},
		{param: " , ,-", want: nil},
		{param: "name", want: []core.DBOrdering{{Field: "name", Ascending: true}}},
		{
			param: "-created_at, name ,-name,email",
			want: []core.DBOrdering{
				{Field: "created_at"},
				{Field: "name", Ascending: true},
				{Field: "email", Ascending: true},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOrdering(tt.param))
		})
	}
}
