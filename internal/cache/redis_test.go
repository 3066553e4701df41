package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		addr    string
		wantNil bool
	}{
		{"Empty address", "", true},
		{"Bare address", mr.Addr(), false},
		{"URL", "redis://" + mr.Addr() + "/0", false},
		{"Invalid URL", "redis://localhost:6379/notanumber", true},
		{"Unreachable", "127.0.0.1:1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Connect(context.Background(), tt.addr)
			if tt.wantNil {
				assert.Nil(t, c)
				return
			}
			require.NotNil(t, c)
			defer func() { _ = c.Close() }()
			assert.NoError(t, c.Ping(context.Background()).Err())
		})
	}
}
