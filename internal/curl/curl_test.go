package curl

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommand(t *testing.T) {
	header := http.Header{}
	header.Set("X-Trace", "abc")
	header.Set("Accept", "application/json")

	got := Command("POST", "https://api.example.com/v1/items", header, []byte(`{"name":"it's"}`))
	want := `curl -X POST -H 'Accept: application/json' -H 'X-Trace: abc' -d '{"name":"it'\''s"}' 'https://api.example.com/v1/items'`
	assert.Equal(t, want, got)
}

func TestCommandWithoutBody(t *testing.T) {
	assert.Equal(t, `curl -X GET 'https://api.example.com/'`, Command("GET", "https://api.example.com/", nil, nil))
}
