package server_test

import (
	"testing"

	"tbl-merger/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Addr(t *testing.T) {
	tests := []struct {
		name string
		port string
		want string
	}{
		{"Plain", "9000", ":9000"},
		{"Colon", ":9001", ":9001"},
		{"Spaces", " 9002 ", ":9002"},
		{"Empty", "", ":8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{Port: tt.port}
			assert.Equal(t, tt.want, c.Addr())
		})
	}
}

func TestConfig_IsProtected(t *testing.T) {
	assert.False(t, server.Config{}.IsProtected())
	assert.True(t, server.Config{ApiKey: "secret"}.IsProtected())
}
