package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"comma inside string", `"A, B","C"`, []string{`"A, B"`, `"C"`}},
		{"nested tables", `{1,{2,3}},nil`, []string{`{1,{2,3}}`, `nil`}},
		{"escaped quote", `"a\"b,c",2`, []string{`"a\"b,c"`, `2`}},
		{"braces inside string", `"{not,a,table}",1`, []string{`"{not,a,table}"`, `1`}},
		{"whitespace trimmed", ` 1 , { 2 } ,nil `, []string{`1`, `{ 2 }`, `nil`}},
		{"empty input", ``, []string{``}},
		{"trailing comma", `1,`, []string{`1`, ``}},
		{"unbalanced input", `{1,2`, []string{`{1,2`}},
		{"backslash escape outside string", `\,,1`, []string{`\,`, `1`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SplitFields(tt.text))
		})
	}
}

func TestSplitFieldsCountsTopLevelCommas(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text   string
		commas int
	}{
		{`"Name",{{1}},nil,5`, 3},
		{`{[12]={{1,2},{3,4}}},nil`, 1},
		{`"a,b,c"`, 0},
		{`nil,nil,nil,nil,`, 4},
		{`"x\\",1`, 1},
	}

	for _, tt := range tests {
		fields := SplitFields(tt.text)
		require.Len(t, fields, tt.commas+1, tt.text)
		assert.Equal(t, tt.text, strings.Join(splitRaw(tt.text), ","))
	}
}

func TestSplitRawRoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`"Kill the Boar",{{123}},{{456}},5,6,nil,nil,{"Slay 10 boars."}`,
		` {1, 2} , "a, b" ,  nil`,
		`{[1429]={{44.1,56.3},{45.0,57.2}}},nil,1429`,
		``,
	}
	for _, in := range inputs {
		assert.Equal(t, in, strings.Join(splitRaw(in), ","))
	}
}

func TestDepthAndBalance(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Depth(`5`))
	assert.Equal(t, 1, Depth(`{5}`))
	assert.Equal(t, 2, Depth(`{{1,2},{3}}`))
	assert.Equal(t, 3, Depth(`{[12]={{1,2}}}`))
	assert.Equal(t, 1, Depth(`{"{{{"}`))

	assert.Equal(t, 0, Balance(`{{1},{2}}`))
	assert.Equal(t, 1, Balance(`{{1},{2}`))
	assert.Equal(t, -1, Balance(`{1}}`))
	assert.Equal(t, 0, Balance(`"}"`))
}

func TestElements(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"1", "2"}, Elements(`{1, 2}`))
	assert.Equal(t, []string{"1", "2"}, Elements(`{1,2,}`))
	assert.Nil(t, Elements(`{}`))
	assert.Equal(t, []string{"{1}"}, Elements(`{{1}}`))
	assert.True(t, IsTable(`{}`))
	assert.False(t, IsTable(`nil`))
}
