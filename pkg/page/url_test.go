package page_test

import (
	"net/url"
	"testing"

	"github.com/aretw0/accreq/pkg/page"
	"github.com/stretchr/testify/assert"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		page   string
		action string
		params url.Values
		want   string
	}{
		{name: "prefix only", prefix: "/app", want: "/app/"},
		{name: "page", prefix: "/app", page: "preferences", want: "/app/preferences"},
		{name: "page and action", prefix: "/app", page: "foo", action: "bar", want: "/app/foo/bar"},
		{name: "query", prefix: "/app", page: "foo", action: "bar", params: url.Values{"x": {"1"}}, want: "/app/foo/bar?x=1"},
		{name: "empty params", prefix: "/app", page: "foo", params: url.Values{}, want: "/app/foo"},
		{name: "encoded query", prefix: "", page: "emailManagement", action: "view", params: url.Values{"q": {"a b&c"}}, want: "/emailManagement/view?q=a+b%26c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, page.BuildURL(tt.prefix, tt.page, tt.action, tt.params))
		})
	}
}
