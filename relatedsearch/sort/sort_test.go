package sort

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirective(t *testing.T) {
	cases := []struct {
		raw        string
		key        string
		descending bool
	}{
		{"make", "make", false},
		{"make.desc", "make", true},
		{"make.DESC", "make", true},
		{"make.asc", "make", false},
		{"device.serial", "device.serial", false},
		{"", "", false},
	}
	for _, c := range cases {
		t.Run(c.raw, func(t *testing.T) {
			key, descending := ParseDirective(c.raw)
			assert.Equal(t, c.key, key)
			assert.Equal(t, c.descending, descending)
		})
	}
}

func TestOrderBy(t *testing.T) {
	s := New("Car_sort")
	s.Attributes["make"] = Attribute{Asc: `"m"."name"`, Desc: `"m"."name" DESC`, Label: "Make"}
	s.DefaultOrder = `"t"."id"`

	assert.Equal(t, `"m"."name" DESC`, s.OrderBy(url.Values{"Car_sort": {"make.desc"}}))
	assert.Equal(t, `"m"."name"`, s.OrderBy(url.Values{"Car_sort": {"make"}}))
	assert.Equal(t, `"t"."id"`, s.OrderBy(url.Values{"Car_sort": {"colour"}}))
	assert.Equal(t, `"t"."id"`, s.OrderBy(nil))
	assert.Equal(t, "Make", s.Label("make"))
}

func TestWildcard(t *testing.T) {
	s := New("")
	s.Wildcard = true
	s.WildcardColumn = func(key string) (string, bool) {
		if key == "qty" {
			return `"t"."qty"`, true
		}
		return "", false
	}

	assert.Equal(t, `"t"."qty" DESC`, s.OrderBy(url.Values{"sort": {"qty.desc"}}))
	assert.Equal(t, "", s.OrderBy(url.Values{"sort": {"name"}}))
}

func TestMergeKeepsExisting(t *testing.T) {
	s := New("")
	s.Attributes["make"] = Attribute{Asc: "custom"}
	s.Merge(map[string]Attribute{
		"make": {Asc: "generated"},
		"qty":  {Asc: "q"},
	})
	assert.Equal(t, "custom", s.Attributes["make"].Asc)
	assert.Equal(t, "q", s.Attributes["qty"].Asc)
}

func TestLink(t *testing.T) {
	s := New("")
	assert.Equal(t, "make.desc", s.Link(url.Values{"sort": {"make"}}, "make"))
	assert.Equal(t, "make", s.Link(url.Values{"sort": {"make.desc"}}, "make"))
	assert.Equal(t, "qty", s.Link(url.Values{"sort": {"make"}}, "qty"))
}
